package encoding

import (
	"errors"
	"flag"
	"fmt"

	"github.com/grafana/dskit/flagext"
)

// MaxTermLength is the largest encoded keyword, in bytes, the storage engine
// accepts. Longer values are marked with [FallbackMarkerValueTooLarge].
const MaxTermLength = 32766

// Config configures an [Encoder].
type Config struct {
	// MaxTermLength lowers the keyword size limit below [MaxTermLength].
	MaxTermLength flagext.Bytes `yaml:"max_term_length"`

	// EncodeProjections enables projection payloads in EncodeDocument.
	EncodeProjections bool `yaml:"encode_projections"`
}

// RegisterFlagsWithPrefix registers flags for the encoder.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	cfg.MaxTermLength = MaxTermLength
	f.Var(&cfg.MaxTermLength, prefix+"max-term-length", "Keyword values whose encoding is at least this many bytes are not indexed and are marked for fallback evaluation instead.")
	f.BoolVar(&cfg.EncodeProjections, prefix+"encode-projections", false, "Store the encoded document as a projection payload next to its indexed fields.")
}

// Validate validates the Config.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.MaxTermLength == 0 {
		errs = append(errs, errors.New("max term length must be greater than 0"))
	}
	if cfg.MaxTermLength > MaxTermLength {
		errs = append(errs, fmt.Errorf("max term length must be at most %d bytes", MaxTermLength))
	}

	return errors.Join(errs...)
}
