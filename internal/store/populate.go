package store

import (
	"context"

	"hostel/internal/model"
)

// StudentsByID loads the distinct students referenced by ids. Ids that no
// longer resolve are simply absent from the map.
func StudentsByID(ctx context.Context, repo Students, ids []string) (map[string]model.Student, error) {
	found, err := repo.GetMany(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Student, len(found))
	for _, st := range found {
		out[st.ID] = st
	}
	return out, nil
}

// UsersByID is StudentsByID for user accounts.
func UsersByID(ctx context.Context, repo Users, ids []string) (map[string]model.User, error) {
	found, err := repo.GetMany(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.User, len(found))
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
