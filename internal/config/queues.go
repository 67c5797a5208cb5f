package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const queueDefinitionsKey = "message_queues"

var ErrNoQueueDefinitions = errors.New("no message queues defined")

// LoadQueueDefinitions reads the message_queues list from a YAML, JSON or TOML file.
func LoadQueueDefinitions(path string) ([]queue.Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read queue definitions from %s: %w", path, err)
	}

	return decodeQueueDefinitions(v)
}

// ParseQueueDefinitions reads the message_queues list from r in the given format, e.g. "yaml".
func ParseQueueDefinitions(r io.Reader, format string) ([]queue.Configuration, error) {
	v := viper.New()
	v.SetConfigType(format)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("unable to parse queue definitions: %w", err)
	}

	return decodeQueueDefinitions(v)
}

func decodeQueueDefinitions(v *viper.Viper) ([]queue.Configuration, error) {
	raw := v.Get(queueDefinitionsKey)
	if raw == nil {
		return nil, ErrNoQueueDefinitions
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list, got %T", queueDefinitionsKey, raw)
	}

	defs := make([]queue.Configuration, 0, len(items))

	for i, item := range items {
		cfg := queue.NewConfiguration()

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", queueDefinitionsKey, i, err)
		}

		applyCredentialOverrides(&cfg)

		defs = append(defs, cfg)
	}

	return defs, nil
}

// applyCredentialOverrides lets MQ_<IDENTIFIER>_USERNAME and MQ_<IDENTIFIER>_PASSWORD
// replace the credentials of a definition.
func applyCredentialOverrides(cfg *queue.Configuration) {
	prefix := "MQ_" + envKey(cfg.Identifier) + "_"

	if value, ok := os.LookupEnv(prefix + "USERNAME"); ok {
		cfg.Username = value
	}

	if value, ok := os.LookupEnv(prefix + "PASSWORD"); ok {
		cfg.Password = value
	}
}

func envKey(identifier string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return '_'
		}

		return unicode.ToUpper(r)
	}, identifier)
}

// ValidateQueueDefinitions checks every definition and the uniqueness of identifiers.
func ValidateQueueDefinitions(defs []queue.Configuration) error {
	if len(defs) == 0 {
		return ErrNoQueueDefinitions
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	seen := make(map[string]int, len(defs))

	var errs []error

	for i, def := range defs {
		if err := validate.Struct(def); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d] %q: %w", queueDefinitionsKey, i, def.Identifier, err))
		}

		if first, ok := seen[def.Identifier]; ok {
			errs = append(errs, fmt.Errorf("%s[%d] %q: %w with entry %d", queueDefinitionsKey, i, def.Identifier, queue.ErrDuplicateIdentifier, first))

			continue
		}

		seen[def.Identifier] = i
	}

	return errors.Join(errs...)
}
