package selection

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxAltLen bounds media alt text length.
const MaxAltLen = 125

// Validate checks a media selection's structural constraints.
func (m MediaSelection) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, validation.Required, is.URL),
		validation.Field(&m.Kind, validation.Required, validation.In(KindImage, KindVideo)),
		validation.Field(&m.Alt,
			validation.Required,
			validation.Length(1, MaxAltLen),
			validation.By(altNotTitleCased),
		),
	)
}

// altNotTitleCased rejects alt text written as a caption of the image
// instead of a description of its content.
func altNotTitleCased(value any) error {
	alt := strings.ToLower(strings.TrimSpace(value.(string)))
	if strings.HasPrefix(alt, "image of") || strings.HasPrefix(alt, "picture of") {
		return validation.NewError(
			"selection_alt_prefix",
			"alt text must not start with 'Image of' or 'Picture of'",
		)
	}
	return nil
}

// Validate checks a link selection's structural constraints.
func (l LinkSelection) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.URL, validation.Required, is.URL),
		validation.Field(&l.Anchor, validation.Required),
		validation.Field(&l.Keyword, validation.Required),
	)
}

// Validate checks a full selection: valid hero and context media plus
// exactly two valid links.
func (s Selection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Hero),
		validation.Field(&s.ContextItem),
		validation.Field(&s.Links, validation.Required, validation.Length(2, 2)),
	)
}
