package blogservice

import (
	"unicode/utf8"

	"github.com/techsphere/techsphere/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(utf8.RuneCountInString(title) <= 200, "title", "must not be more than 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateTags(v *common.Validator, tags []string) {
	for _, tag := range tags {
		if !common.PermittedValue(tag, PermittedTags...) {
			v.AddError("tags", "contains an unsupported tag")
			return
		}
	}
}

func validateCustomTags(v *common.Validator, tags []string) {
	for _, tag := range tags {
		if tag == "" || utf8.RuneCountInString(tag) > 20 {
			v.AddError("custom_tags", "each custom tag must be between 1 and 20 characters long")
			return
		}
	}
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(common.PermittedValue(status, StatusDraft, StatusPublished), "status", "must be either draft or published")
}
