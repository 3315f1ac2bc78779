package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/nail-studio-api/internal/booking"
	"github.com/wolfman30/nail-studio-api/internal/chat"
	appconfig "github.com/wolfman30/nail-studio-api/internal/config"
	"github.com/wolfman30/nail-studio-api/internal/notify"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

type fakeSES struct{}

func (fakeSES) SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	return &sesv2.SendEmailOutput{}, nil
}

func TestBuildRedisClientEmptyAddrReturnsNil(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client when REDIS_ADDR is empty")
	}
}

func TestBuildSessionStoreMemoryByDefault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := BuildSessionStore(ctx, &appconfig.Config{BookingSessionStore: "memory", BookingSessionTTL: time.Hour}, logging.New("error"))
	if _, ok := store.(*booking.MemorySessionStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := BuildSessionStore(ctx, &appconfig.Config{
		BookingSessionStore: "redis",
		BookingSessionTTL:   time.Hour,
		RedisAddr:           mr.Addr(),
	}, logging.New("error"))
	if _, ok := store.(*booking.RedisSessionStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
}

func TestBuildSessionStoreRedisUnavailableFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := BuildSessionStore(ctx, &appconfig.Config{BookingSessionStore: "redis", RedisAddr: addr}, logging.New("error"))
	if _, ok := store.(*booking.MemorySessionStore); !ok {
		t.Fatalf("expected memory fallback, got %T", store)
	}
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")
	cases := []struct {
		name     string
		cfg      *appconfig.Config
		ses      notify.SESAPI
		provider string
	}{
		{"nil config", nil, nil, "stub"},
		{"none", &appconfig.Config{EmailProvider: "none"}, nil, "stub"},
		{"sendgrid", &appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test", SendGridFromEmail: "hello@polishednails.example"}, nil, "sendgrid"},
		{"sendgrid without key", &appconfig.Config{EmailProvider: "sendgrid"}, nil, "stub"},
		{"ses", &appconfig.Config{EmailProvider: "ses", SESFromEmail: "hello@polishednails.example"}, fakeSES{}, "ses"},
		{"ses without client", &appconfig.Config{EmailProvider: "ses", SESFromEmail: "hello@polishednails.example"}, nil, "stub"},
		{"unknown", &appconfig.Config{EmailProvider: "carrier-pigeon"}, nil, "stub"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender, provider := BuildEmailSender(tc.cfg, tc.ses, logger)
			if sender == nil {
				t.Fatal("expected a sender")
			}
			if provider != tc.provider {
				t.Fatalf("expected provider %q, got %q", tc.provider, provider)
			}
		})
	}
}

func TestBuildChatUpstream(t *testing.T) {
	if _, err := BuildChatUpstream(nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	up, err := BuildChatUpstream(&appconfig.Config{ChatProvider: "glm"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Provider() != "glm" {
		t.Fatalf("expected glm, got %s", up.Provider())
	}
	if _, ok := up.(*chat.HTTPUpstream); !ok {
		t.Fatalf("expected HTTPUpstream, got %T", up)
	}

	up, err = BuildChatUpstream(&appconfig.Config{ChatProvider: "gemini", GeminiAPIKey: "key"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Provider() != "gemini" {
		t.Fatalf("expected gemini, got %s", up.Provider())
	}

	if _, err := BuildChatUpstream(&appconfig.Config{ChatProvider: "other"}, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

type fakeConverse struct{}

func (fakeConverse) Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	return &bedrockruntime.ConverseOutput{}, nil
}

func TestBuildChatUpstreamBedrock(t *testing.T) {
	cfg := &appconfig.Config{ChatProvider: "bedrock", BedrockModelID: "anthropic.claude", AWSRegion: "us-east-1"}

	up, err := BuildChatUpstream(cfg, fakeConverse{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := up.(*chat.BedrockUpstream); !ok {
		t.Fatalf("expected BedrockUpstream, got %T", up)
	}
	if err := up.Validate(); err != nil {
		t.Fatalf("expected valid upstream, got %v", err)
	}

	up, err = BuildChatUpstream(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cfgErr *chat.ConfigError
	if err := up.Validate(); !errors.As(err, &cfgErr) || cfgErr.Item != "Bedrock client" {
		t.Fatalf("expected missing client error, got %v", err)
	}
}
