package timeout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
)

func TestCanClaimBoundary(t *testing.T) {
	cases := []struct {
		now, last, window int64
		want              bool
	}{
		{now: 1000, last: 1000, window: 300, want: false},
		{now: 1300, last: 1000, window: 300, want: false},
		{now: 1301, last: 1000, window: 300, want: true},
		{now: 5000, last: 1000, window: 300, want: true},
		{now: 10, last: 10, window: 0, want: false},
		{now: 11, last: 10, window: 0, want: true},
	}
	for _, c := range cases {
		if got := CanClaim(c.now, c.last, c.window); got != c.want {
			t.Errorf("CanClaim(%d, %d, %d) = %v, want %v", c.now, c.last, c.window, got, c.want)
		}
	}
}

type stubTiming struct {
	timing rpsls.Timing
	err    error
	asked  string
}

func (s *stubTiming) SessionTiming(_ context.Context, gameName string) (rpsls.Timing, error) {
	s.asked = gameName
	return s.timing, s.err
}

func TestOracleUsesClock(t *testing.T) {
	reader := &stubTiming{timing: rpsls.Timing{LastAction: 1000, Window: 300}}
	mock := clock.NewMock()
	mock.Set(time.Unix(1290, 0))
	oracle := NewOracle(reader, mock)

	v, err := oracle.Check(context.Background(), "g")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if reader.asked != "g" {
		t.Fatalf("oracle asked for %q", reader.asked)
	}
	if v.Claimable || v.Remaining != 11*time.Second {
		t.Fatalf("unexpected verdict %+v", v)
	}

	mock.Add(11 * time.Second)
	v, err = oracle.Check(context.Background(), "g")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !v.Claimable || v.Remaining != 0 {
		t.Fatalf("expected claimable verdict, got %+v", v)
	}
}

func TestOracleWrapsReaderError(t *testing.T) {
	boom := errors.New("node down")
	oracle := NewOracle(&stubTiming{err: boom}, clock.NewMock())
	if _, err := oracle.Check(context.Background(), "g"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped reader error, got %v", err)
	}
}
