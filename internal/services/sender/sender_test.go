package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockClient struct {
	mock.Mock
	buf bytes.Buffer
}

func (m *MockClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockClient) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockClient) Quit() error            { return m.Called().Error(0) }
func (m *MockClient) Close() error           { return m.Called().Error(0) }

func (m *MockClient) Data() (io.WriteCloser, error) {
	if err := m.Called().Error(0); err != nil {
		return nil, err
	}
	return nopWriteCloser{&m.buf}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func message(t *testing.T, n models.Notification) []byte {
	t.Helper()
	body, err := json.Marshal(n)
	require.NoError(t, err)
	return body
}

func TestRender(t *testing.T) {
	text, err := Render(models.TemplateExpiryWarning, map[string]string{
		"name": "Ana Gómez", "plan": "Monthly", "end_date": "2024-03-20", "days_left": "5",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Hello, Ana Gómez!")
	assert.Contains(t, text, `Your membership "Monthly" expires on 2024-03-20 (5 days left).`)

	text, err = Render(models.TemplateWelcome, map[string]string{"name": "Leo"})
	require.NoError(t, err)
	assert.Contains(t, text, "Your membership is registered.")

	for _, name := range []string{models.TemplateRenewal, models.TemplateReactivation} {
		_, err := Render(name, nil)
		assert.NoError(t, err, name)
	}

	_, err = Render("unknown", nil)
	assert.Error(t, err)
}

func TestSenderService_HandleMessage(t *testing.T) {
	valid := models.Notification{
		ID: "1", Template: models.TemplateWelcome, To: "ana@example.com",
		Subject: "Welcome", Fields: map[string]string{"name": "Ana"},
	}

	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		setupMocks func(tr *MockTransport, c *MockClient)
		wantErr    bool
		wantSent   bool
	}{
		{
			name: "delivered",
			body: func(t *testing.T) []byte { return message(t, valid) },
			setupMocks: func(tr *MockTransport, c *MockClient) {
				tr.On("GetSMTPUser").Return("gym@example.com")
				tr.On("Connect").Return(c, nil).Once()
				c.On("Mail", "gym@example.com").Return(nil).Once()
				c.On("Rcpt", "ana@example.com").Return(nil).Once()
				c.On("Data").Return(nil).Once()
				c.On("Quit").Return(nil).Once()
				c.On("Close").Return(nil).Once()
			},
			wantSent: true,
		},
		{
			name: "smtp failure is retried",
			body: func(t *testing.T) []byte { return message(t, valid) },
			setupMocks: func(tr *MockTransport, c *MockClient) {
				tr.On("GetSMTPUser").Return("gym@example.com")
				tr.On("Connect").Return(c, nil).Once()
				c.On("Mail", "gym@example.com").Return(errors.New("421 try later")).Once()
				c.On("Close").Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name: "connection failure is retried",
			body: func(t *testing.T) []byte { return message(t, valid) },
			setupMocks: func(tr *MockTransport, _ *MockClient) {
				tr.On("GetSMTPUser").Return("gym@example.com")
				tr.On("Connect").Return(nil, errors.New("dial tcp: refused")).Once()
			},
			wantErr: true,
		},
		{
			name:       "broken json is dropped",
			body:       func(*testing.T) []byte { return []byte("{") },
			setupMocks: func(*MockTransport, *MockClient) {},
		},
		{
			name: "unknown template is dropped",
			body: func(t *testing.T) []byte {
				n := valid
				n.Template = "promo"
				return message(t, n)
			},
			setupMocks: func(*MockTransport, *MockClient) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, c := &MockTransport{}, &MockClient{}
			tt.setupMocks(tr, c)

			err := NewSenderService(tr, newNoopLogger()).HandleMessage(tt.body(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantSent {
				sent := c.buf.String()
				assert.True(t, strings.HasPrefix(sent, "From: gym@example.com\r\nTo: ana@example.com\r\n"))
				assert.Contains(t, sent, "Hello, Ana!")
			}
			tr.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}
