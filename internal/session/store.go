package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neexbeast/weatherdash/internal/weather"
)

// ErrNotFound is returned when no state exists for a session id.
var ErrNotFound = errors.New("session not found")

// Store is a string-keyed byte store. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

const (
	keyFavorites = "weatherAppFavorites"
	keyTheme     = "weatherAppTheme"
	keyUnit      = "weatherAppUnit"
	keyHistory   = "weatherAppHistory"
	keyCurrent   = "weatherAppCurrent"
)

func storeKey(id, name string) string {
	return "session:" + id + ":" + name
}

// Load reads the state for id. ErrNotFound is returned when none of its keys exist.
func Load(ctx context.Context, store Store, id string) (State, error) {
	s := New(id)
	found := false

	get := func(name string) ([]byte, error) {
		b, err := store.Get(ctx, storeKey(id, name))
		if err != nil {
			return nil, fmt.Errorf("loading %s for session %s: %w", name, id, err)
		}
		if b != nil {
			found = true
		}
		return b, nil
	}

	b, err := get(keyUnit)
	if err != nil {
		return State{}, err
	}
	if b != nil {
		s.Unit = weather.ParseUnit(string(b))
	}

	if b, err = get(keyTheme); err != nil {
		return State{}, err
	}
	if t := Theme(b); t.Valid() {
		s.Theme = t
	}

	for _, list := range []struct {
		name string
		dst  *[]Location
	}{
		{keyFavorites, &s.Favorites},
		{keyHistory, &s.History},
	} {
		if b, err = get(list.name); err != nil {
			return State{}, err
		}
		if b == nil {
			continue
		}
		if err := json.Unmarshal(b, list.dst); err != nil {
			return State{}, fmt.Errorf("decoding %s for session %s: %w", list.name, id, err)
		}
		if *list.dst == nil {
			*list.dst = []Location{}
		}
	}

	if b, err = get(keyCurrent); err != nil {
		return State{}, err
	}
	if len(b) > 0 && string(b) != "null" {
		var cur Location
		if err := json.Unmarshal(b, &cur); err != nil {
			return State{}, fmt.Errorf("decoding %s for session %s: %w", keyCurrent, id, err)
		}
		s.Current = &cur
	}

	if !found {
		return State{}, ErrNotFound
	}
	return s, nil
}

// Save writes every key of s. Writes are independent; the last writer wins.
func Save(ctx context.Context, store Store, s State) error {
	favorites, err := json.Marshal(nonNil(s.Favorites))
	if err != nil {
		return fmt.Errorf("encoding favorites for session %s: %w", s.ID, err)
	}
	history, err := json.Marshal(nonNil(s.History))
	if err != nil {
		return fmt.Errorf("encoding history for session %s: %w", s.ID, err)
	}
	current, err := json.Marshal(s.Current)
	if err != nil {
		return fmt.Errorf("encoding current location for session %s: %w", s.ID, err)
	}

	for _, kv := range []struct {
		name  string
		value []byte
	}{
		{keyUnit, []byte(s.Unit)},
		{keyTheme, []byte(s.Theme)},
		{keyFavorites, favorites},
		{keyHistory, history},
		{keyCurrent, current},
	} {
		if err := store.Set(ctx, storeKey(s.ID, kv.name), kv.value); err != nil {
			return fmt.Errorf("saving %s for session %s: %w", kv.name, s.ID, err)
		}
	}
	return nil
}

func nonNil(ls []Location) []Location {
	if ls == nil {
		return []Location{}
	}
	return ls
}
