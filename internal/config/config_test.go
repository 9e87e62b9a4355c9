package config

import "testing"

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.setDefaults()
	if c.BindAddr != ":4443" {
		t.Fatalf("BindAddr = %q, want :4443", c.BindAddr)
	}
	if c.ClusterPrefix != "origin." {
		t.Fatalf("ClusterPrefix = %q, want origin.", c.ClusterPrefix)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev mode ok", Config{BindAddr: ":4443", ClusterPrefix: "origin.", DevMode: true}, false},
		{"missing tls", Config{BindAddr: ":4443", ClusterPrefix: "origin."}, true},
		{"missing bind addr", Config{ClusterPrefix: "origin.", DevMode: true}, true},
		{"prefix without dot", Config{BindAddr: ":4443", ClusterPrefix: "origin", DevMode: true}, true},
		{"node without root", Config{BindAddr: ":4443", ClusterPrefix: "origin.", DevMode: true, ClusterNode: "a"}, true},
		{"node with root ok", Config{BindAddr: ":4443", ClusterPrefix: "origin.", DevMode: true, ClusterNode: "a", ClusterRootURL: "https://root.example"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
