package validation

import (
	"errors"
	"strings"
	"testing"
)

type sampleRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
	Port     int    `json:"port" validate:"min=0,max=65535"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=8"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		req        sampleRequest
		wantFields []string
	}{
		{name: "valid", req: sampleRequest{DeviceID: "d1", Port: 8728}},
		{name: "missing device", req: sampleRequest{Port: 1}, wantFields: []string{"device_id"}},
		{name: "port and name", req: sampleRequest{DeviceID: "d1", Port: 70000, Name: "much-too-long"}, wantFields: []string{"port", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() = %v, want nil", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() = %v, want *Error", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("got %d field errors, want %d: %v", len(verr.Fields), len(tt.wantFields), verr)
			}
			for i, f := range tt.wantFields {
				if verr.Fields[i].Field != f {
					t.Errorf("field[%d] = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestStruct_messages(t *testing.T) {
	err := Struct(&sampleRequest{Port: -1})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"device_id is required", "port must be at least 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}
