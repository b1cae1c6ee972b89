package commentservice

import (
	"unicode/utf8"

	"github.com/techsphere/techsphere/internal/common"
)

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(utf8.RuneCountInString(content) <= 1000, "content", "must not be more than 1000 characters long")
}
