package commsutil

import (
	"encoding/json"
	"testing"
)

func TestEncodePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    string
		wantErr bool
	}{
		{
			name:  "selection envelope",
			input: map[string]interface{}{"Selection": []map[string]string{{"Type": "UID", "Data": "x"}}},
			want:  `{"Selection":[{"Data":"x","Type":"UID"}]}`,
		},
		{
			name:  "nil",
			input: nil,
			want:  "null",
		},
		{
			name:    "channel is not serializable",
			input:   make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePayload(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatal("commsutil:codec_test - expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}

			if got := string(data); got != tt.want {
				t.Errorf("commsutil:codec_test - EncodePayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	var target struct {
		QueryID string `json:"QueryId"`
	}
	if err := DecodePayload([]byte(`{"QueryId":"Q1"}`), &target); err != nil {
		t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
	}
	if target.QueryID != "Q1" {
		t.Errorf("commsutil:codec_test - QueryID = %q, want Q1", target.QueryID)
	}

	if err := DecodePayload([]byte(`{invalid}`), &target); err == nil {
		t.Fatal("commsutil:codec_test - expected error for invalid json")
	}
	if err := DecodePayload(nil, &target); err == nil {
		t.Fatal("commsutil:codec_test - expected error for empty data")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"string passes through", `{"a":1}`, `{"a":1}`},
		{"bytes pass through", []byte(`[1]`), `[1]`},
		{"raw message", json.RawMessage(`true`), `true`},
		{"struct is marshalled", struct {
			ComponentID string `json:"ComponentId"`
		}{"C1"}, `{"ComponentId":"C1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Stringify(tt.input)
			if err != nil {
				t.Fatalf("commsutil:codec_test - unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("commsutil:codec_test - Stringify() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Stringify(make(chan int)); err == nil {
		t.Error("commsutil:codec_test - expected error for channel")
	}
}
