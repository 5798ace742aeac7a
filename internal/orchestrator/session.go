package orchestrator

import (
	"sync"

	"social-post-copilot/internal/domain/ports/gateway"
)

// SessionContext holds the ambient session/company identity that several
// coordinators need read access to. Passed down explicitly rather than kept
// in a global.
type SessionContext struct {
	mu        sync.RWMutex
	sessionID string
	authToken string
	companyID string
}

func NewSessionContext(authToken, companyID string) *SessionContext {
	return &SessionContext{authToken: authToken, companyID: companyID}
}

func (s *SessionContext) SetAuth(authToken, companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authToken = authToken
	s.companyID = companyID
}

// SetSessionID records the session id issued by the first exchange.
func (s *SessionContext) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

func (s *SessionContext) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *SessionContext) CompanyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.companyID
}

func (s *SessionContext) Credentials() gateway.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gateway.Credentials{
		SessionID: s.sessionID,
		AuthToken: s.authToken,
		CompanyID: s.companyID,
	}
}
