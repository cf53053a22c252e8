package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"encodeforge/internal/fingerprint"
)

func testOptions(t *testing.T, baseURL string) Options {
	t.Helper()
	return Options{
		BaseURL: baseURL,
		Delay:   time.Millisecond,
	}
}

// forbiddenServer fails the test if any request reaches it.
func forbiddenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func movieFingerprint() fingerprint.MediaFingerprint {
	return fingerprint.MediaFingerprint{
		CleanTitle:    "Inception",
		Year:          2010,
		SearchQueries: []string{"Inception 2010", "Inception"},
	}
}

func episodeFingerprint() fingerprint.MediaFingerprint {
	return fingerprint.MediaFingerprint{
		CleanTitle:    "Severance",
		Season:        2,
		Episode:       5,
		SearchQueries: []string{"Severance S02E05"},
	}
}

func TestOpenSubtitlesSearch(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Api-Key")
		if r.URL.Query().Get("query") != "Inception 2010" {
			// Later fallback queries return nothing.
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"9000","attributes":{
			"language":"en","release":"Inception.2010.1080p.BluRay","download_count":5420,"ratings":8.5,
			"files":[{"file_id":123456,"file_name":"Inception.2010.srt"}]}}]}`))
	}))
	defer srv.Close()

	opts := testOptions(t, srv.URL)
	opts.APIKey = "test-key"
	provider := NewOpenSubtitles(opts)

	candidates, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotPath != "/subtitles" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("Api-Key header = %q", gotKey)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Provider != "opensubtitles" || c.FileID != "123456" {
		t.Errorf("candidate identity = %s/%s", c.Provider, c.FileID)
	}
	if c.Downloads != 5420 || c.Rating != 8.5 || c.Format != "srt" {
		t.Errorf("candidate metadata = %+v", c)
	}
}

func TestOpenSubtitlesSearchWithoutKeySkipsNetwork(t *testing.T) {
	srv := forbiddenServer(t)
	provider := NewOpenSubtitles(testOptions(t, srv.URL))

	candidates, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates without an api key", len(candidates))
	}
}

func TestOpenSubtitlesSearchStopsAtFirstHit(t *testing.T) {
	queries := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries++
		w.Write([]byte(`{"data":[{"id":"1","attributes":{
			"language":"en","files":[{"file_id":7,"file_name":"a.srt"}]}}]}`))
	}))
	defer srv.Close()

	opts := testOptions(t, srv.URL)
	opts.APIKey = "k"
	provider := NewOpenSubtitles(opts)

	if _, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if queries != 1 {
		t.Errorf("provider issued %d queries after a hit, want 1", queries)
	}
}

func TestGestdownIgnoresMovies(t *testing.T) {
	srv := forbiddenServer(t)
	provider := NewGestdown(testOptions(t, srv.URL))

	candidates, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if candidates != nil {
		t.Errorf("movie search returned %d candidates", len(candidates))
	}
}

func TestGestdownSearchEpisodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/subtitles/find/English/Severance/2/5") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"matchingSubtitles":[
			{"subtitleId":"abc","version":"NTb","completed":true,"downloadUri":"/subtitles/download/abc","language":"English","downloadCount":12},
			{"subtitleId":"def","version":"WIP","completed":false,"downloadUri":"/subtitles/download/def","language":"English"}]}`))
	}))
	defer srv.Close()

	provider := NewGestdown(testOptions(t, srv.URL))
	candidates, err := provider.Search(context.Background(), episodeFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (incomplete filtered out)", len(candidates))
	}
	if candidates[0].FileID != "abc" || candidates[0].Downloads != 12 {
		t.Errorf("candidate = %+v", candidates[0])
	}
}

func TestYIFYIgnoresEpisodes(t *testing.T) {
	srv := forbiddenServer(t)
	provider := NewYIFYSubtitles(testOptions(t, srv.URL))

	candidates, err := provider.Search(context.Background(), episodeFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if candidates != nil {
		t.Errorf("episode search returned %d candidates", len(candidates))
	}
}

func TestAddic7edIgnoresMovies(t *testing.T) {
	srv := forbiddenServer(t)
	provider := NewAddic7ed(testOptions(t, srv.URL))

	if _, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestAddic7edRetrieveWithoutTokenIsManual(t *testing.T) {
	srv := forbiddenServer(t)
	provider := NewAddic7ed(testOptions(t, srv.URL))

	payload, err := provider.Retrieve(context.Background(), Candidate{
		Provider:    "addic7ed",
		DownloadURL: srv.URL + "/original/1/1",
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !payload.Manual {
		t.Fatal("payload without user token should be manual")
	}
	if !strings.Contains(payload.Instructions, "/original/1/1") {
		t.Errorf("instructions do not mention the page: %q", payload.Instructions)
	}
}

func TestSubsceneRetrieveManualWhenLinkHidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Please verify you are human.</body></html>`))
	}))
	defer srv.Close()

	provider := NewSubscene(testOptions(t, srv.URL))
	payload, err := provider.Retrieve(context.Background(), Candidate{
		Provider:    "subscene",
		DownloadURL: srv.URL + "/subtitles/inception/english/1",
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !payload.Manual {
		t.Fatal("blocked page should produce a manual payload")
	}
	if !strings.Contains(payload.Instructions, "/subtitles/inception/english/1") {
		t.Errorf("instructions do not include page URL: %q", payload.Instructions)
	}
}

func TestSubsceneRetrieveFollowsDownloadLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/subtitles/inception/english/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/subtitles/inception/english/1/download?x=1" rel="nofollow">Download</a>`))
	})
	mux.HandleFunc("/subtitles/inception/english/1/download", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := NewSubscene(testOptions(t, srv.URL))
	payload, err := provider.Retrieve(context.Background(), Candidate{
		Provider:    "subscene",
		Release:     "Inception.1080p",
		DownloadURL: srv.URL + "/subtitles/inception/english/1",
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if payload.Manual {
		t.Fatal("payload should not be manual when the link resolves")
	}
	if string(payload.Data) != "zip-bytes" {
		t.Errorf("payload data = %q", payload.Data)
	}
}

func TestSubdivxSearchParsesAjax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{"aaData":[{"id":771,"titulo":"Inception (2010)","descripcion":"BluRay rip","descargas":930}]}`))
	}))
	defer srv.Close()

	provider := NewSubdivx(testOptions(t, srv.URL))
	candidates, err := provider.Search(context.Background(), movieFingerprint(), []string{"spa"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Language != "spa" || c.FileID != "771" || c.Downloads != 930 {
		t.Errorf("candidate = %+v", c)
	}
}

func TestSubdivxSearchIgnoresNonSpanishLanguages(t *testing.T) {
	srv := forbiddenServer(t)

	provider := NewSubdivx(testOptions(t, srv.URL))
	candidates, err := provider.Search(context.Background(), movieFingerprint(), []string{"eng"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestSubdivxRetrieveDeclaresWindows1252(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("espa\xf1ol"))
	}))
	defer srv.Close()

	provider := NewSubdivx(testOptions(t, srv.URL))
	payload, err := provider.Retrieve(context.Background(), Candidate{
		Provider:    subdivxName,
		FileID:      "771",
		DownloadURL: srv.URL + "/descargar.php?id=771",
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if payload.SourceEncoding != "windows-1252" {
		t.Errorf("SourceEncoding = %q, want %q", payload.SourceEncoding, "windows-1252")
	}
	if got := string(ReencodeToUTF8(payload.Data, payload.SourceEncoding)); got != "español" {
		t.Errorf("re-encoded payload = %q, want %q", got, "español")
	}
}

func TestSpecialistLanguageDeclarations(t *testing.T) {
	srv := forbiddenServer(t)
	opts := testOptions(t, srv.URL)

	if langs := NewSubdivx(opts).Languages(); len(langs) != 1 || langs[0] != "spa" {
		t.Errorf("subdivx Languages() = %v", langs)
	}
	kitsu := NewKitsunekko(opts).Languages()
	if len(kitsu) != 2 || kitsu[0] != "eng" || kitsu[1] != "jpn" {
		t.Errorf("kitsunekko Languages() = %v", kitsu)
	}
	if langs := NewOpenSubtitles(opts).Languages(); langs != nil {
		t.Errorf("opensubtitles Languages() = %v, want nil", langs)
	}
}
