package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	v := New(clock.NewFakeClock(now))

	tests := []struct {
		name    string
		msg     domain.RawMessage
		wantErr error
		want    domain.Reading
	}{
		{
			name: "valid",
			msg:  domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("1300.00")},
			want: domain.Reading{HomeID: "H001", Power: 1300, Timestamp: now},
		},
		{
			name: "whitespace payload",
			msg:  domain.RawMessage{Topic: "home/H002/consumption", Payload: []byte(" 42.5 ")},
			want: domain.Reading{HomeID: "H002", Power: 42.5, Timestamp: now},
		},
		{
			name: "negative passes",
			msg:  domain.RawMessage{Topic: "home/H003/consumption", Payload: []byte("-5")},
			want: domain.Reading{HomeID: "H003", Power: -5, Timestamp: now},
		},
		{
			name: "exponent",
			msg:  domain.RawMessage{Topic: "home/H005/consumption", Payload: []byte("1.25e3")},
			want: domain.Reading{HomeID: "H005", Power: 1250, Timestamp: now},
		},
		{
			name: "captured at wins",
			msg: domain.RawMessage{
				Topic:      "home/H004/consumption",
				Payload:    []byte("300"),
				CapturedAt: now.Add(-time.Minute),
			},
			want: domain.Reading{HomeID: "H004", Power: 300, Timestamp: now.Add(-time.Minute)},
		},
		{name: "empty id", msg: domain.RawMessage{Topic: "home//consumption", Payload: []byte("1")}, wantErr: domain.ErrMalformedTopic},
		{name: "short topic", msg: domain.RawMessage{Topic: "home/H001", Payload: []byte("1")}, wantErr: domain.ErrMalformedTopic},
		{name: "wrong prefix", msg: domain.RawMessage{Topic: "device/H001/consumption", Payload: []byte("1")}, wantErr: domain.ErrMalformedTopic},
		{name: "wildcard id", msg: domain.RawMessage{Topic: "home/+/consumption", Payload: []byte("1")}, wantErr: domain.ErrMalformedTopic},
		{name: "abc", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("abc")}, wantErr: domain.ErrNotANumber},
		{name: "empty payload", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: nil}, wantErr: domain.ErrNotANumber},
		{name: "nan", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("NaN")}, wantErr: domain.ErrNotANumber},
		{name: "inf", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("Inf")}, wantErr: domain.ErrNotANumber},
		{name: "hex float", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("0x1p10")}, wantErr: domain.ErrNotANumber},
		{name: "underscores", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("1_000")}, wantErr: domain.ErrNotANumber},
		{name: "overflow", msg: domain.RawMessage{Topic: "home/H001/consumption", Payload: []byte("1e400")}, wantErr: domain.ErrNotANumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.msg)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.True(t, errors.Is(err, domain.ErrMalformedInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
