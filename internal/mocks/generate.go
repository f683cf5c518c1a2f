package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Mirror --dir ../domain/crosswalk --output domain/crosswalk --outpkg crosswalkmock --filename mirror_mock.go
