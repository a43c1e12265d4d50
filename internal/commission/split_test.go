package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestSplitter() *Splitter {
	return NewSplitter(decimal.NewFromInt(50), OverrideTable{
		"35": {FixedUserCashback: decimal.NewFromInt(10)},
	})
}

func TestSplitSumsToAverage(t *testing.T) {
	splitter := newTestSplitter()
	for i := 0; i <= 400; i++ {
		average := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(4)) // 0 .. 100 步长 0.25
		quote := splitter.Split(average, "12")
		if quote.Overridden {
			t.Fatalf("partner 12 should not be overridden")
		}
		if !quote.PlatformEarnings.Valid {
			t.Fatalf("platform earnings should be set for average %s", average)
		}
		sum := quote.UserCashback.Add(quote.PlatformEarnings.Decimal)
		if !sum.Equal(average) {
			t.Fatalf("user + platform want %s got %s", average, sum)
		}
	}
}

func TestSplitDefaultRatio(t *testing.T) {
	quote := newTestSplitter().Split(decimal.NewFromInt(6), "1")
	if !quote.UserCashback.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("user cashback want 3 got %s", quote.UserCashback)
	}
	if !quote.PlatformEarnings.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("platform earnings want 3 got %s", quote.PlatformEarnings.Decimal)
	}
}

func TestSplitOverrideIsFixed(t *testing.T) {
	splitter := newTestSplitter()
	for _, avg := range []int64{0, 3, 10, 42, 100} {
		quote := splitter.Split(decimal.NewFromInt(avg), " 35 ")
		if !quote.Overridden {
			t.Fatalf("partner 35 should be overridden")
		}
		if !quote.UserCashback.Equal(decimal.NewFromInt(10)) {
			t.Fatalf("override user cashback want 10 got %s", quote.UserCashback)
		}
		if quote.PlatformEarnings.Valid {
			t.Fatalf("override platform earnings should stay unset")
		}
	}
}

func TestSplitClampsOutOfRangeAverage(t *testing.T) {
	splitter := newTestSplitter()

	high := splitter.Split(decimal.NewFromInt(250), "1")
	if !high.Average.Equal(decimal.NewFromInt(100)) || !high.UserCashback.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected clamp to 100, got %+v", high)
	}
	low := splitter.Split(decimal.NewFromInt(-3), "1")
	if !low.Average.IsZero() || !low.UserCashback.IsZero() || !low.PlatformEarnings.Decimal.IsZero() {
		t.Fatalf("expected clamp to 0, got %+v", low)
	}
}

func TestNewSplitterCustomShare(t *testing.T) {
	splitter := NewSplitter(decimal.NewFromInt(70), nil)
	quote := splitter.Split(decimal.NewFromInt(10), "9")
	if !quote.UserCashback.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("user cashback want 7 got %s", quote.UserCashback)
	}

	replaced := splitter.WithOverrides(OverrideTable{"9": {FixedUserCashback: decimal.NewFromInt(1)}})
	if !replaced.Split(decimal.NewFromInt(10), "9").Overridden {
		t.Fatalf("replaced table should override partner 9")
	}
	if splitter.Split(decimal.NewFromInt(10), "9").Overridden {
		t.Fatalf("original splitter must stay unchanged")
	}
}
