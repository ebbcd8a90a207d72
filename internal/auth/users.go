// Package auth verifies credentials and issues the bearer tokens the
// realtime adapter authenticates with. Any token failure is uniform:
// the connection attempt is rejected, no retry.
package auth

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/domain"
)

// UserRepository reads credential records from a JSON file.
type UserRepository struct {
	path string
}

func NewUserRepository(path string) *UserRepository {
	return &UserRepository{path: path}
}

func (r *UserRepository) GetAll() []domain.User {
	data, err := os.ReadFile(r.path)
	if err != nil {
		log.Error().Err(err).Str("module", "auth").Str("path", r.path).Msg("read user store")
		return nil
	}
	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		log.Error().Err(err).Str("module", "auth").Str("path", r.path).Msg("parse user store")
		return nil
	}
	return users
}

func (r *UserRepository) GetByLogin(login string) (domain.User, bool) {
	for _, u := range r.GetAll() {
		if u.Login == login {
			return u, true
		}
	}
	return domain.User{}, false
}
