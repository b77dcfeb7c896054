package lspserver

import "sync"

// Document represents an open template tracked by the LSP server.
type Document struct {
	// URI is the document URI (e.g., "file:///srv/templates/profile.jinja").
	URI string

	// LanguageID is the language identifier (e.g., "jinja").
	LanguageID string

	// Version is the document version as reported by the client.
	Version int32

	// Content is the current full text of the document.
	Content string
}

// Path returns the local filesystem path of the document.
func (d *Document) Path() string {
	return uriToPath(d.URI)
}

// DocumentStore manages the open documents of one editor session.
// It is safe for concurrent access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates a new empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*Document),
	}
}

// Open adds or replaces a document in the store.
func (s *DocumentStore) Open(uri, languageID string, version int32, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Content:    content,
	}
}

// Update replaces the content and version of an existing document.
// Returns false if the document is not open.
func (s *DocumentStore) Update(uri string, version int32, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return false
	}
	doc.Version = version
	doc.Content = content
	return true
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
