package storage

import (
	"github.com/peteski22/booksync/internal/sync"
)

var (
	_ sync.CredentialResolver = (*CredentialResolver)(nil)
	_ sync.Locker             = (*DynamoLocker)(nil)
	_ sync.Locker             = (*RedisLocker)(nil)
	_ sync.Locker             = NoopLocker{}
	_ sync.Store              = (*GormStore)(nil)
)
