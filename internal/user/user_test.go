package user

import (
	"errors"
	"os/user"
	"testing"
)

func withLookup(t *testing.T, fn func() (*user.User, error)) {
	t.Helper()
	orig := lookup
	lookup = fn
	t.Cleanup(func() { lookup = orig })
}

func TestCurrentUsername(t *testing.T) {
	tests := []struct {
		name   string
		lookup func() (*user.User, error)
		envVar string
		want   string
	}{
		{
			name:   "os account",
			lookup: func() (*user.User, error) { return &user.User{Username: "alice"}, nil },
			envVar: "ignored",
			want:   "alice",
		},
		{
			name:   "domain prefix is dropped",
			lookup: func() (*user.User, error) { return &user.User{Username: `CORP\alice`}, nil },
			want:   "alice",
		},
		{
			name:   "falls back to USER",
			lookup: func() (*user.User, error) { return nil, errors.New("no passwd entry") },
			envVar: "bob",
			want:   "bob",
		},
		{
			name:   "empty when nothing is known",
			lookup: func() (*user.User, error) { return &user.User{}, nil },
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withLookup(t, tt.lookup)
			t.Setenv("USER", tt.envVar)

			if got := CurrentUsername(); got != tt.want {
				t.Errorf("CurrentUsername() = %q, want %q", got, tt.want)
			}
		})
	}
}
