// Package broadcastifytest provides an in-process imitation of the
// provider's feed, login, download page and media endpoints for tests.
package broadcastifytest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"barchive/pkg/config"
)

// Request kinds counted by the server
const (
	KindFeed  = "feed"
	KindLogin = "login"
	KindPage  = "page"
	KindMedia = "media"
)

const sessionCookie = "bcfy_session"

// Server serves the provider endpoints from in-memory state
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	feeds        map[string]string
	username     string
	password     string
	media        map[string][]byte
	pageStatus   map[string]int
	mediaStatus  map[string]int
	premiumOnly  map[string]bool
	brokenPages  map[string]bool
	requests     map[string]int
	requestPaths []string
}

// NewServer starts a server with one account. Close it when done.
func NewServer(username, password string) *Server {
	s := &Server{
		feeds:       make(map[string]string),
		username:    username,
		password:    password,
		media:       make(map[string][]byte),
		pageStatus:  make(map[string]int),
		mediaStatus: make(map[string]int),
		premiumOnly: make(map[string]bool),
		brokenPages: make(map[string]bool),
		requests:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/listen/feed/", s.handleFeed)
	mux.HandleFunc("/login/", s.handleLogin)
	mux.HandleFunc("/archives/id/", s.handlePage)
	mux.HandleFunc("/media/", s.handleMedia)
	s.Server = httptest.NewServer(mux)
	return s
}

// Config returns provider settings pointing at this server
func (s *Server) Config() config.BroadcastifyConfig {
	return config.BroadcastifyConfig{
		FeedURL:        s.URL + "/listen/feed/",
		ArchiveURL:     s.URL + "/archives/feed/",
		DownloadURL:    s.URL + "/archives/id/",
		LoginURL:       s.URL + "/login/",
		UserAgent:      "barchive-test",
		RequestTimeout: 5 * time.Second,
	}
}

// AddFeed registers a feed and its display name
func (s *Server) AddFeed(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[id] = name
}

// AddEntry makes an entry's download page link to content
func (s *Server) AddEntry(uri string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[uri] = content
}

// SetPageStatus makes the entry's download page answer with code
func (s *Server) SetPageStatus(uri string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageStatus[uri] = code
}

// SetMediaStatus makes the entry's media file answer with code
func (s *Server) SetMediaStatus(uri string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaStatus[uri] = code
}

// SetPremiumOnly hides the entry's media link behind the subscription warning
func (s *Server) SetPremiumOnly(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premiumOnly[uri] = true
}

// SetBrokenPage serves a download page with no link and no warning
func (s *Server) SetBrokenPage(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenPages[uri] = true
}

// Requests returns how many requests of one kind were served
func (s *Server) Requests(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[kind]
}

// TotalRequests returns how many requests were served overall
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

// Paths returns every request path in arrival order
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestPaths...)
}

func (s *Server) count(kind string, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[kind]++
	s.requestPaths = append(s.requestPaths, r.URL.Path)
}

func leaf(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

func writePage(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Broadcastify</title></head><body>%s</body></html>", body)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.count(KindFeed, r)

	s.mu.Lock()
	name, ok := s.feeds[leaf(r.URL.Path, "/listen/feed/")]
	s.mu.Unlock()

	if !ok {
		writePage(w, `<div class="container"><p>Feed not found</p></div>`)
		return
	}
	writePage(w, fmt.Sprintf(`<div class="container"><span class="px13">%s</span></div>`, name))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count(KindLogin, r)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("action") != "auth" {
		http.Error(w, "missing action", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != s.username || r.PostForm.Get("password") != s.password {
		writePage(w, `<div class="alert alert-danger">Log in Failed! Please check your username and password.</div>`)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/"})
	writePage(w, `<div class="welcome">Welcome back</div>`)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.count(KindPage, r)
	uri := leaf(r.URL.Path, "/archives/id/")

	s.mu.Lock()
	status, hasStatus := s.pageStatus[uri]
	_, known := s.media[uri]
	premium := s.premiumOnly[uri]
	broken := s.brokenPages[uri]
	s.mu.Unlock()

	if hasStatus {
		w.WriteHeader(status)
		return
	}
	if !known {
		http.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(sessionCookie)
	switch {
	case err != nil || cookie.Value != "ok" || premium:
		writePage(w, `<div class="alert alert-warning">A premium subscription is required to download archives.</div>`)
	case broken:
		writePage(w, `<div class="maintenance">Archives are temporarily unavailable</div>`)
	default:
		writePage(w, fmt.Sprintf(`<div class="archive"><a class="btn" href="/media/%s.mp3">Download</a></div>`, uri))
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	s.count(KindMedia, r)
	uri := strings.TrimSuffix(leaf(r.URL.Path, "/media/"), ".mp3")

	s.mu.Lock()
	status, hasStatus := s.mediaStatus[uri]
	content, known := s.media[uri]
	s.mu.Unlock()

	if hasStatus {
		w.WriteHeader(status)
		return
	}
	if !known {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", fmt.Sprint(len(content)))
	_, _ = w.Write(content)
}
