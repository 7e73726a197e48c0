package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewReadingSeries_OrdersAndDeclaresChannels(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	series, err := NewReadingSeries([]string{"M9"}, []MeterReading{
		{At: base.Add(SamplingInterval), ChannelID: "M1", Watts: 2},
		{At: base, ChannelID: "M1", Watts: 1},
	})
	if err != nil {
		t.Fatalf("new series: %v", err)
	}
	readings := series.Readings()
	if !readings[0].At.Equal(base) {
		t.Fatalf("expected readings ordered by time, got %v first", readings[0].At)
	}
	if !series.HasChannel("M9") || !series.HasChannel("M1") {
		t.Fatalf("expected declared and implicit channels, got %v", series.Channels())
	}
	if sum, ok := series.SumWatts("M9"); !ok || sum != 0 {
		t.Fatalf("declared channel without readings: sum=%v ok=%v", sum, ok)
	}
	if _, ok := series.SumWatts("M2"); ok {
		t.Fatalf("expected unknown channel to be reported missing")
	}
}

func TestNewReadingSeries_RejectsNegativeWatts(t *testing.T) {
	_, err := NewReadingSeries(nil, []MeterReading{{At: time.Now(), ChannelID: "M1", Watts: -1}})
	if !errors.Is(err, ErrNegativeWatts) {
		t.Fatalf("expected negative watts error, got %v", err)
	}
}

func TestBetween_KeepsChannelsAndBounds(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	var readings []MeterReading
	for i := 0; i < 4; i++ {
		readings = append(readings, MeterReading{At: base.Add(time.Duration(i) * time.Hour), ChannelID: "M1", Watts: 10})
	}
	series, err := NewReadingSeries([]string{"M2"}, readings)
	if err != nil {
		t.Fatalf("new series: %v", err)
	}

	window := series.Between(base.Add(time.Hour), base.Add(2*time.Hour))
	if window.Len() != 2 {
		t.Fatalf("expected inclusive bounds to keep 2 readings, got %d", window.Len())
	}
	if !window.HasChannel("M2") {
		t.Fatalf("expected declared channel to survive filtering")
	}
	if series.Len() != 4 {
		t.Fatalf("source series must not change, got %d", series.Len())
	}
}

func TestNewReadingSeries_RejectsNonFiniteWatts(t *testing.T) {
	at := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, watts := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewReadingSeries(nil, []MeterReading{{At: at, ChannelID: "M1", Watts: watts}})
		if !errors.Is(err, ErrNonFiniteWatts) {
			t.Fatalf("watts %v: expected non-finite error, got %v", watts, err)
		}
	}
}
