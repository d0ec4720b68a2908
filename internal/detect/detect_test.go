package detect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchScriptDomains(t *testing.T) {
	tests := []struct {
		name string
		srcs []string
		want []string
	}{
		{
			name: "mediavine script host",
			srcs: []string{"https://scripts.mediavine.com/tags/example.js"},
			want: []string{"mediavine"},
		},
		{
			name: "ezoic script host",
			srcs: []string{"https://www.ezojs.com/ezoic/sa.min.js"},
			want: []string{"ezoic"},
		},
		{
			name: "adsense script host",
			srcs: []string{"https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js"},
			want: []string{"adsense"},
		},
		{
			name: "ad manager script host",
			srcs: []string{"https://securepubads.g.doubleclick.net/tag/js/gpt.js"},
			want: []string{"ad_manager"},
		},
		{
			name: "amazon associates script host",
			srcs: []string{"https://ws-na.amazon-adsystem.com/widgets/onejs"},
			want: []string{"amazon_associates"},
		},
		{
			name: "monumetric script host",
			srcs: []string{"https://d2v734f2ybhd6d.cloudfront.net/loader.js"},
			want: []string{"monumetric"},
		},
		{
			name: "media.net script host",
			srcs: []string{"https://contextual.media.net/dmedianet.js"},
			want: []string{"media_net"},
		},
		{
			name: "unrelated scripts",
			srcs: []string{"https://example.com/app.js", "/wp-includes/js/jquery.min.css"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match("", tt.srcs))
		})
	}
}

func TestMatchAdthriveHeuristics(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"per-site subdomain", "https://recipes.adthrive.com/sites/abc/ads.min.js"},
		{"bare host", "https://ADTHRIVE.com/loader.js"},
		{"generic ads bundle", "https://cdn.example.com/ads.min.js"},
		{"sites path", "https://cdn.example.com/sites/5f3a/bundle.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Match("", []string{tt.src}), "adthrive")
		})
	}
}

func TestMatchBodyPatterns(t *testing.T) {
	html := `<html><head><script>window.mediavineDomain = "example.com";</script>
		<script>(adsbygoogle = window.adsbygoogle || []).push({});</script></head></html>`

	tags := Match(html, nil)
	assert.Contains(t, tags, "mediavine")
	assert.Contains(t, tags, "adsense")
	assert.NotContains(t, tags, "ezoic")
}

func TestMatchOrderIsStable(t *testing.T) {
	srcs := []string{
		"https://contextual.media.net/dmedianet.js",
		"https://scripts.mediavine.com/tags/example.js",
	}
	// Signature-table order, not source order.
	assert.Equal(t, []string{"mediavine", "media_net"}, Match("", srcs))
}

func TestScriptSources(t *testing.T) {
	html := `<html><body>
		<script src="https://a.example.com/one.js"></script>
		<script>inline();</script>
		<script src="/two.js"></script>
		<script src=""></script>
	</body></html>`

	assert.Equal(t, []string{"https://a.example.com/one.js", "/two.js"}, scriptSources(html))
}

func TestScanDetectsProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`<html><head>
			<script src="https://scripts.mediavine.com/tags/example.js"></script>
		</head></html>`))
	}))
	defer srv.Close()

	d := New(time.Second, zerolog.Nop())
	tags, err := d.Scan(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"mediavine"}, tags)
}

func TestScanNoProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>hello</body></html>`))
	}))
	defer srv.Close()

	d := New(time.Second, zerolog.Nop())
	tags, err := d.Scan(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestScanNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := New(time.Second, zerolog.Nop())
	_, err := d.Scan(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestScanUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := New(time.Second, zerolog.Nop())
	_, err := d.Scan(context.Background(), url)
	assert.Error(t, err)
}

func TestScanContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := New(time.Second, zerolog.Nop())
	_, err := d.Scan(ctx, srv.URL)
	assert.Error(t, err)
}

func TestNewDefaultTimeout(t *testing.T) {
	d := New(0, zerolog.Nop())
	assert.Equal(t, DefaultTimeout, d.client.Timeout)
}
