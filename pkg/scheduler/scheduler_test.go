package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(time.UTC, zerolog.Nop())

	_, err := s.Add("not a spec", "broken", func(context.Context) error { return nil })
	require.Error(t, err)
	require.Equal(t, 0, s.Len())
}

func TestAddRegistersJobs(t *testing.T) {
	s := New(nil, zerolog.Nop())

	_, err := s.Add("* * * * *", "email", func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = s.Add("0 3 * * *", "sync-users", func(context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	s.Start()
	s.Shutdown()
}
