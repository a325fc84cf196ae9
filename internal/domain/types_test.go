package domain

import (
	"encoding/json"
	"testing"
)

func TestNumLenientDecode(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`" 7 "`, 7},
		{`""`, 0},
		{`null`, 0},
		{`"abc"`, 0},
		{`"NaN"`, 0},
		{`"Inf"`, 0},
		{`true`, 0},
	}
	for _, tt := range tests {
		var n Num
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tt.in, err)
		}
		if n.Float() != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, n.Float(), tt.want)
		}
	}
}

func TestQuoteAliases(t *testing.T) {
	var q Quote
	raw := `{"code":"600519","price":"1688.5","amount":1000,"volume":"10","updateTime":1718001000}`
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q.LatestPrice != 1688.5 {
		t.Errorf("LatestPrice = %v, want 1688.5", q.LatestPrice)
	}
	if q.VolumeAmount != 1000 {
		t.Errorf("VolumeAmount = %v, want 1000", q.VolumeAmount)
	}
	if q.Volume != 10 {
		t.Errorf("Volume = %v, want 10", q.Volume)
	}
	if q.SnapshotTime != "1718001000" {
		t.Errorf("SnapshotTime = %q, want %q", q.SnapshotTime, "1718001000")
	}

	// latestPrice takes priority over the aliases.
	var q2 Quote
	if err := json.Unmarshal([]byte(`{"latestPrice":10,"price":11,"close":12}`), &q2); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q2.LatestPrice != 10 {
		t.Errorf("LatestPrice = %v, want 10", q2.LatestPrice)
	}

	var q3 Quote
	if err := json.Unmarshal([]byte(`{"close":9.5}`), &q3); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q3.LatestPrice != 9.5 {
		t.Errorf("LatestPrice from close = %v, want 9.5", q3.LatestPrice)
	}
}

func TestStockLegacyFields(t *testing.T) {
	var s Stock
	raw := `{"code":"000001","latestPrice":11.2,"changePercent":-1.5,"marketCode":"1"}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Price != 11.2 || s.Pct != -1.5 || s.Market != MarketSH {
		t.Errorf("Stock = %+v, want price 11.2 pct -1.5 market 1", s)
	}
}

func TestKlineStringVolume(t *testing.T) {
	var k Kline
	if err := json.Unmarshal([]byte(`{"code":"600519","period":101,"date":"2024-06-03","volume":"123456"}`), &k); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if k.Volume != 123456 {
		t.Errorf("Volume = %v, want 123456", k.Volume)
	}
}

func TestNullFloatJSON(t *testing.T) {
	b, err := json.Marshal([]NullFloat{{}, {V: 10.25, Valid: true}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `[null,10.25]` {
		t.Errorf("Marshal = %s, want [null,10.25]", b)
	}
}

func TestSourceKindIntraday(t *testing.T) {
	if !SourceTick.Intraday() || !SourceTrend.Intraday() || !SourceMinute.Intraday() {
		t.Error("tick/trend/minute should be intraday")
	}
	if SourceDaily.Intraday() {
		t.Error("daily should not be intraday")
	}
	if DirectionUp.String() != "up" || DirectionDown.String() != "down" || DirectionFlat.String() != "flat" {
		t.Error("Direction.String returned unexpected values")
	}
}

func TestMarketOf(t *testing.T) {
	tests := map[string]int{
		"600519": MarketSH,
		"510300": MarketSH,
		"000001": MarketSZ,
		"159915": MarketSZ,
		"300750": MarketSZ,
		"":       MarketSZ,
	}
	for code, want := range tests {
		if got := MarketOf(code); got != want {
			t.Errorf("MarketOf(%q) = %d, want %d", code, got, want)
		}
	}
}
