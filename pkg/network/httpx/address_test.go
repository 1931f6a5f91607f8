package httpx

import (
	"net"
	"testing"
)

type fakeL struct{ a *net.TCPAddr }

func (f fakeL) Accept() (net.Conn, error) { return nil, nil }
func (f fakeL) Close() error              { return nil }
func (f fakeL) Addr() net.Addr            { return f.a }

func TestMergeAddresses(t *testing.T) {
	tests := []struct {
		address string
		port    int
		want    string
	}{
		{address: "host.com:8080", port: 8888, want: "host.com:8888"},
		{address: "", port: 8888, want: "localhost:8888"},
		{address: "host.com", port: 443, want: "host.com"},
		{address: ":9999", port: 9999, want: "localhost:9999"},
	}
	for _, test := range tests {
		l := Listener{fakeL{a: &net.TCPAddr{Port: test.port}}}
		if got := mergeAddresses(test.address, l); got != test.want {
			t.Errorf("mergeAddresses(%q, :%d) = %q, want %q", test.address, test.port, got, test.want)
		}
	}
}
