package server

import (
	"mime/multipart"

	"github.com/matsen/depviz/internal/pom"
)

type multipartFile struct {
	header *multipart.FileHeader
}

func (f *multipartFile) parse() (pom.Project, error) {
	file, err := f.header.Open()
	if err != nil {
		return pom.Project{}, err
	}
	defer file.Close()
	return pom.Parse(file)
}
