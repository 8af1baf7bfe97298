// Package service coordinates the store, the cache, the asset store and
// ownership checks for every operation on the user/note/section/page hierarchy.
//
// Writes follow one protocol: invalidate the affected cache keys, write the
// store, then repopulate single-entity keys. Collection keys are only cleared;
// the next read that misses rebuilds them in one atomic replacement. The sequence is not
// atomic with the store write, so a concurrent reader can repopulate an entry
// just before a writer overwrites the row; such an entry stays stale until the
// next write touching it or its TTL.
package service

import (
	"time"

	"github.com/rs/zerolog"

	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/hierarchy"
	"notebookService/repository"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Users    repository.UserRepositoryI
	Notes    repository.NoteRepositoryI
	Sections repository.SectionRepositoryI
	Pages    repository.PageRepositoryI
	Cache    cache.Cache
	Assets   *assets.Store
	Issuer   *auth.Issuer
	CacheTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     zerolog.Logger
}

// Services groups the per-entity services.
type Services struct {
	Notes    *NoteService
	Sections *SectionService
	Pages    *PageService
	Users    *UserService
}

// New builds every service over the same collaborators.
func New(d Deps) *Services {
	b := newBase(d)
	return &Services{
		Notes:    &NoteService{base: b},
		Sections: &SectionService{base: b},
		Pages:    &PageService{base: b},
		Users:    &UserService{base: b},
	}
}

type base struct {
	Deps
	gate *cacheGate
	walk *hierarchy.Walker
}

func newBase(d Deps) base {
	if d.CacheTTL <= 0 {
		d.CacheTTL = cache.DefaultTTL
	}
	return base{
		Deps: d,
		gate: &cacheGate{c: d.Cache, ttl: d.CacheTTL, log: d.Logger},
		walk: hierarchy.NewWalker(d.Notes, d.Sections),
	}
}
