// Package i18n holds the operator facing message catalog. Keys are the
// English strings; other locales translate them.
package i18n

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	MsgNoData              = "No data provided"
	MsgInvalidPayload      = "Invalid QR code data format."
	MsgRegistered          = "Successfully registered new employee ID: %s. Session: %s"
	MsgAlreadyRegistered   = "already registered at %s"
	MsgRegistrationAnomaly = "Registration conflict for employee ID %s but the existing record could not be read. Please scan again."
	MsgNoPrize             = "No prize found for this employee."
	MsgPrizeReceived       = "Already received the item"
	MsgPrizeRedeemed       = "This prize has already been redeemed."
	MsgPrizeMissing        = "Prize details not found."
	MsgInvalidPhoto        = "Invalid photo data."
	MsgInternal            = "Internal server error"
)

var supported = []language.Tag{
	language.English,
	language.Thai,
}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.Thai: {
		MsgNoData:              "ไม่มีข้อมูล",
		MsgInvalidPayload:      "รูปแบบข้อมูล QR code ไม่ถูกต้อง",
		MsgRegistered:          "ลงทะเบียนรหัสพนักงาน %s สำเร็จ รอบ: %s",
		MsgAlreadyRegistered:   "ลงทะเบียนแล้วเมื่อเวลา %s",
		MsgRegistrationAnomaly: "พบการลงทะเบียนซ้ำของรหัสพนักงาน %s แต่ไม่พบข้อมูลเดิม กรุณาสแกนใหม่",
		MsgNoPrize:             "ไม่พบรางวัลของพนักงานคนนี้",
		MsgPrizeReceived:       "รับของไปแล้ว",
		MsgPrizeRedeemed:       "รางวัลนี้ถูกรับไปแล้ว",
		MsgPrizeMissing:        "ไม่พบรายละเอียดรางวัล",
		MsgInvalidPhoto:        "ข้อมูลรูปภาพไม่ถูกต้อง",
		MsgInternal:            "เกิดข้อผิดพลาดภายในระบบ",
	},
}

var cat = build()

func build() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	for _, key := range []string{
		MsgNoData, MsgInvalidPayload, MsgRegistered, MsgAlreadyRegistered,
		MsgRegistrationAnomaly, MsgNoPrize, MsgPrizeReceived, MsgPrizeRedeemed,
		MsgPrizeMissing, MsgInvalidPhoto, MsgInternal,
	} {
		if err := b.SetString(language.English, key, key); err != nil {
			panic(err)
		}
	}

	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}

	return b
}

// Match resolves a locale such as "th", "en-US" or an Accept-Language
// header value to a supported base tag, English when nothing matches.
func Match(locale string) language.Tag {
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()
	return language.Make(base.String())
}

type ctxKey struct{}

// WithLocale stores the resolved locale on ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Match(locale))
}

// Locale returns the locale stored on ctx, English by default.
func Locale(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}

// Printer returns a printer bound to the catalog for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// T formats key in the locale stored on ctx.
func T(ctx context.Context, key string, args ...interface{}) string {
	return Printer(Locale(ctx)).Sprintf(key, args...)
}
