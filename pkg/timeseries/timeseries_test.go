package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		readings []Reading
		wantErr  bool
	}{
		{
			name:    "empty",
			wantErr: true,
		},
		{
			name: "ordered",
			readings: []Reading{
				{Timestamp: base, WaterLevel: 10},
				{Timestamp: base.AddDate(0, 0, 1), WaterLevel: 9.9},
			},
		},
		{
			name: "out of order",
			readings: []Reading{
				{Timestamp: base.AddDate(0, 0, 1), WaterLevel: 10},
				{Timestamp: base, WaterLevel: 9.9},
			},
			wantErr: true,
		},
		{
			name: "duplicate timestamp",
			readings: []Reading{
				{Timestamp: base, WaterLevel: 10},
				{Timestamp: base, WaterLevel: 9.9},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := New(tt.readings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, len(tt.readings), ts.Len())
		})
	}
}

func TestWaterYear(t *testing.T) {
	oct1 := DefaultWaterYearStart()

	tests := []struct {
		name  string
		start WaterYearStart
		at    time.Time
		want  int
	}{
		{
			name:  "exactly on start date belongs to new water year",
			start: oct1,
			at:    time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC),
			want:  2021,
		},
		{
			name:  "day before start date",
			start: oct1,
			at:    time.Date(2020, 9, 30, 23, 0, 0, 0, time.UTC),
			want:  2020,
		},
		{
			name:  "mid water year",
			start: oct1,
			at:    time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
			want:  2021,
		},
		{
			name:  "end of water year",
			start: oct1,
			at:    time.Date(2021, 9, 30, 0, 0, 0, 0, time.UTC),
			want:  2021,
		},
		{
			name:  "january first start labels by calendar year",
			start: WaterYearStart{Month: time.January, Day: 1},
			at:    time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
			want:  2020,
		},
		{
			name:  "april start",
			start: WaterYearStart{Month: time.April, Day: 1},
			at:    time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
			want:  2021,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.start.WaterYear(tt.at))
		})
	}
}

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{
			name:   "window one is identity",
			values: []float64{1, 2, 3},
			window: 1,
			want:   []float64{1, 2, 3},
		},
		{
			name:   "window three",
			values: []float64{1, 2, 3, 4, 5},
			window: 3,
			want:   []float64{1.5, 2, 3, 4, 4.5},
		},
		{
			name:   "constant unchanged",
			values: []float64{5, 5, 5, 5},
			window: 3,
			want:   []float64{5, 5, 5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.values, tt.window)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				require.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestMedFilt(t *testing.T) {
	got := MedFilt([]float64{1, 100, 3, 4, 5}, 3)
	want := []float64{50.5, 3, 4, 4, 4.5}
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-12)
	}

	require.Panics(t, func() { MedFilt([]float64{1, 2}, 2) })
}
