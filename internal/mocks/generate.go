package mocks

//go:generate mockery --name EventStore --srcpkg github.com/menulens/menulens/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
