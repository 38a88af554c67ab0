package prefs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingIsZero(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	p, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, Prefs{}, p)
}

func TestUpdateRoundTrip(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.NoError(t, s.Update(func(p *Prefs) {
		p.DomainView = "simple"
		p.LastSession = "abc"
		p.RememberHost("ws://a")
	}))
	require.NoError(t, s.Update(func(p *Prefs) { p.RememberHost("ws://b") }))
	require.NoError(t, s.Update(func(p *Prefs) { p.RememberHost("ws://a") }))

	p, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "simple", p.DomainView)
	require.Equal(t, "abc", p.LastSession)
	require.Equal(t, []string{"ws://a", "ws://b"}, p.RecentHosts)
}

func TestRecentHostsBounded(t *testing.T) {
	var p Prefs
	for i := 0; i < maxRecentHosts+3; i++ {
		p.RememberHost(fmt.Sprintf("ws://h%d", i))
	}
	require.Len(t, p.RecentHosts, maxRecentHosts)
	require.Equal(t, fmt.Sprintf("ws://h%d", maxRecentHosts+2), p.RecentHosts[0])
	p.RememberHost("")
	require.Len(t, p.RecentHosts, maxRecentHosts)
}
