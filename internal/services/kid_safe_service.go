package services

import (
	"context"
	"strings"
	"unicode"

	"proof/internal/models"
	"proof/internal/repositories"
)

type KidSafeService interface {
	Startup(ctx context.Context)
	Get(ctx context.Context) (*models.KidSafeSettings, error)
	Save(ctx context.Context, settings models.KidSafeSettings) error
	// CheckContent reports whether prompt passes the content filter.
	CheckContent(ctx context.Context, prompt string) (bool, error)
}

type kidSafeService struct {
	repo repositories.KidSafeRepository
	ctx  context.Context
}

func NewKidSafeService(repo repositories.KidSafeRepository) KidSafeService {
	return &kidSafeService{repo: repo}
}

func (s *kidSafeService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *kidSafeService) Get(ctx context.Context) (*models.KidSafeSettings, error) {
	return s.repo.Get(ctx)
}

func (s *kidSafeService) Save(ctx context.Context, settings models.KidSafeSettings) error {
	settings = settings.Normalized()
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.repo.Save(ctx, &settings)
}

func (s *kidSafeService) CheckContent(ctx context.Context, prompt string) (bool, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	if !settings.FiltersContent() {
		return true, nil
	}
	if _, blocked := settings.BlockedWordIn(prompt); blocked {
		return false, nil
	}
	if len(settings.AllowedTopics) == 0 {
		return true, nil
	}
	return relevantToAny(prompt, settings.AllowedTopics), nil
}

// relevantToAny matches a topic when the prompt mentions it whole or shares
// one of its significant words.
func relevantToAny(prompt string, topics []string) bool {
	lower := strings.ToLower(prompt)
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, notWordRune) {
		words[w] = struct{}{}
	}
	for _, topic := range topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		if strings.Contains(lower, topic) {
			return true
		}
		for _, tw := range strings.FieldsFunc(topic, notWordRune) {
			if len([]rune(tw)) < 3 {
				continue
			}
			if _, ok := words[tw]; ok {
				return true
			}
		}
	}
	return false
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
