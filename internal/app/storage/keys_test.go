package storage

import "testing"

func TestKeyFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		key  string
		ok   bool
	}{
		{
			name: "public base URL",
			url:  "https://cdn.example.com/avatars/u1/abc.png",
			key:  "avatars/u1/abc.png",
			ok:   true,
		},
		{
			name: "path-style endpoint",
			url:  "http://localhost:9000/duochat/messages/m42.jpg",
			key:  "messages/m42.jpg",
			ok:   true,
		},
		{
			name: "presigned URL with query string",
			url:  "https://s3.example.com/duochat/avatars/u1/abc.webp?X-Amz-Signature=deadbeef&X-Amz-Expires=604800",
			key:  "avatars/u1/abc.webp",
			ok:   true,
		},
		{
			name: "unrelated URL",
			url:  "https://example.com/static/logo.png",
			ok:   false,
		},
		{
			name: "empty string",
			url:  "",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := KeyFromURL(tc.url)
			if ok != tc.ok {
				t.Fatalf("KeyFromURL(%q) ok = %v, want %v", tc.url, ok, tc.ok)
			}
			if key != tc.key {
				t.Fatalf("KeyFromURL(%q) = %q, want %q", tc.url, key, tc.key)
			}
		})
	}
}

func TestDecodeDataURL(t *testing.T) {
	mimeType, data, err := DecodeDataURL("data:image/PNG;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeDataURL returned error: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("mime type = %q, want %q", mimeType, "image/png")
	}
	if string(data) != "hello" {
		t.Fatalf("decoded payload = %q, want %q", data, "hello")
	}

	bad := []string{
		"image/png;base64,aGVsbG8=",
		"data:image/png;base64",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64,@@not-base64@@",
	}
	for _, in := range bad {
		if _, _, err := DecodeDataURL(in); err == nil {
			t.Fatalf("DecodeDataURL(%q) succeeded, want error", in)
		}
	}
}
