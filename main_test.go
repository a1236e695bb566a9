package main

import (
	"testing"

	"logchat/model"
	"logchat/ratelimit"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name    string
		want    model.BackendKind
		wantErr bool
	}{
		{"", model.KindHosted, false},
		{"hosted", model.KindHosted, false},
		{"ondevice", model.KindOnDevice, false},
		{"downloadable", model.KindDownloadable, false},
		{"cloud", "", true},
	}
	for _, tt := range tests {
		got, err := parseBackend(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBackend(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseBackend(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPickTier(t *testing.T) {
	tiers := []ratelimit.Tier{{Name: "full"}, {Name: "mini"}}

	if got := pickTier("mini", tiers); got != "mini" {
		t.Errorf("pickTier(mini) = %q", got)
	}
	if got := pickTier("pro", tiers); got != "" {
		t.Errorf("pickTier(pro) = %q, want default", got)
	}
	if got := pickTier("", nil); got != "" {
		t.Errorf("pickTier(\"\") = %q", got)
	}
}
