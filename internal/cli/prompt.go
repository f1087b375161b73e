package cli

import (
	"context"
	stderrors "errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/matzehuels/zplkit/pkg/catalog"
)

// prompter asks for one form field. The survey implementation is replaced
// in tests.
type prompter interface {
	Input(ctx context.Context, field catalog.Field, current string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, field catalog.Field, current string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: field.Label + ":",
		Default: current,
		Help:    fieldHelp(field),
	}
	var opts []survey.AskOpt
	if field.Required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

// translateSurveyErr maps Ctrl-C to context.Canceled so main exits with 130.
func translateSurveyErr(err error) error {
	if stderrors.Is(err, terminal.InterruptErr) {
		return context.Canceled
	}
	return err
}

func fieldHelp(f catalog.Field) string {
	switch f.Kind {
	case catalog.KindBarcode:
		return "Printed as a Code 128 barcode"
	case catalog.KindQRCode:
		return "Encoded in a QR code"
	}
	if !f.Required {
		return "Optional; leave empty to omit the line"
	}
	return ""
}

// promptForm asks for every schema field in order, starting from data.
func (c *CLI) promptForm(ctx context.Context, tmpl catalog.Template, data catalog.FormData) (catalog.FormData, error) {
	p := c.prompt
	if p == nil {
		p = surveyPrompter{}
	}
	out := make(catalog.FormData, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range tmpl.Fields {
		v, err := p.Input(ctx, f, out[f.Key])
		if err != nil {
			return nil, err
		}
		if v == "" {
			delete(out, f.Key)
			continue
		}
		out[f.Key] = v
	}
	return out, nil
}
