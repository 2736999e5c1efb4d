package moderation

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidateUsername(t *testing.T) {
	Convey("Given the default rules", t, func() {
		r := NewRules(DefaultBannedTerms(), nil)

		Convey("When the username is well formed", func() {
			Convey("Then it is accepted", func() {
				for _, name := range []string{"goose", "Hon_k.42", "abc", strings.Repeat("a", 20)} {
					So(r.ValidateUsername(name), ShouldBeNil)
				}
			})
		})

		Convey("When the username is too short or too long", func() {
			Convey("Then ErrUsernameLength is returned", func() {
				So(errors.Is(r.ValidateUsername("ab"), ErrUsernameLength), ShouldBeTrue)
				So(errors.Is(r.ValidateUsername(strings.Repeat("a", 21)), ErrUsernameLength), ShouldBeTrue)
			})
		})

		Convey("When the username has disallowed characters", func() {
			Convey("Then ErrUsernameCharset is returned", func() {
				So(errors.Is(r.ValidateUsername("goose trials"), ErrUsernameCharset), ShouldBeTrue)
				So(errors.Is(r.ValidateUsername("gans@uw"), ErrUsernameCharset), ShouldBeTrue)
				So(errors.Is(r.ValidateUsername("gänse"), ErrUsernameCharset), ShouldBeTrue)
			})
		})

		Convey("When the username hides a banned term", func() {
			Convey("Then case, leet and separators do not help", func() {
				for _, name := range []string{"SiteAdmin", "4dm1n_99", "the.mod-erator", "g00se_tr1als"} {
					So(errors.Is(r.ValidateUsername(name), ErrUsernameBanned), ShouldBeTrue)
				}
			})
		})
	})
}

func TestTags(t *testing.T) {
	Convey("Given rules built from a tag map", t, func() {
		src := map[string]string{"u-1": "dev"}
		r := NewRules(nil, src)
		src["u-2"] = "late"

		Convey("Then configured tags resolve and later edits to the source are ignored", func() {
			So(r.Tag("u-1"), ShouldEqual, "dev")
			So(r.Tag("u-2"), ShouldEqual, "")
		})
	})
}
