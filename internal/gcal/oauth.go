package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/sheets/v4"
)

var ErrNotAuthorized = errors.New("google account is not authorized, open /auth first")

// TokenManager хранит OAuth-токен владельца календаря в файле и обновляет его.
// Сам является oauth2.TokenSource, поэтому клиенты видят свежий токен после /oauth2callback
type TokenManager struct {
	config *oauth2.Config
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	token *oauth2.Token
}

func NewTokenManager(clientID, clientSecret, redirectURI, path string, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarScope, sheets.SpreadsheetsScope},
		},
		path:   path,
		logger: logger,
	}
}

// Load читает сохранённый токен. Отсутствие файла не ошибка: ждём авторизации
func (m *TokenManager) Load() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("⚠️ No saved Google token, authorize via /auth", zap.String("path", m.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("decode token file: %w", err)
	}

	m.mu.Lock()
	m.token = &token
	m.mu.Unlock()

	m.logger.Info("🔄 Google token loaded", zap.Time("expiry", token.Expiry))
	return nil
}

// AuthURL адрес согласия: offline-доступ и повторный запрос, чтобы получить refresh token
func (m *TokenManager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange меняет код авторизации на токен и сохраняет его
func (m *TokenManager) Exchange(ctx context.Context, code string) error {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	if err := m.store(token); err != nil {
		return err
	}

	m.logger.Info("✅ Google account authorized", zap.Time("expiry", token.Expiry))
	return nil
}

// Refresh принудительно обновляет access token по refresh token
func (m *TokenManager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()
	if current == nil {
		return ErrNotAuthorized
	}

	expired := *current
	expired.Expiry = time.Now().Add(-time.Minute)

	token, err := m.config.TokenSource(ctx, &expired).Token()
	if err != nil {
		return fmt.Errorf("refresh access token: %w", err)
	}
	if err := m.store(token); err != nil {
		return err
	}

	m.logger.Info("🔄 Access token refreshed", zap.Time("expiry", token.Expiry))
	return nil
}

// Token реализует oauth2.TokenSource
func (m *TokenManager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()
	if current == nil {
		return nil, ErrNotAuthorized
	}
	if current.Valid() {
		return current, nil
	}

	token, err := m.config.TokenSource(context.Background(), current).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	if err := m.store(token); err != nil {
		m.logger.Warn("Failed to persist refreshed token", zap.Error(err))
	}
	return token, nil
}

func (m *TokenManager) Authorized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil
}

// HTTPClient клиент, подписывающий запросы текущим токеном
func (m *TokenManager) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, m)
}

func (m *TokenManager) store(token *oauth2.Token) error {
	m.mu.Lock()
	// Google не всегда возвращает refresh token повторно
	if token.RefreshToken == "" && m.token != nil {
		token.RefreshToken = m.token.RefreshToken
	}
	m.token = token
	m.mu.Unlock()

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
