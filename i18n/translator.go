package i18n

import "fmt"

// Translator retrieves localized messages for issue codes. params provides
// the structured issue parameters to embed in the message (for example,
// "expected" or "min").
type Translator interface {
	Message(code string, params map[string]any) string
}

// dictTranslator is the built-in dictionary-based Translator. It is total:
// every known code resolves to a non-empty message and unknown codes fall
// back to the code itself.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, params map[string]any) string {
	switch t.lang {
	case "ja":
		switch code {
		case "required":
			return "必須の値がありません"
		case "invalid_type":
			return "型が不正です"
		case "invalid_array":
			return "配列の制約に違反しています"
		case "invalid_date":
			return "日時が不正です"
		case "invalid_set":
			return "セットの制約に違反しています"
		case "invalid_tuple":
			return "タプルの要素数が不正です"
		case "invalid_enum_value":
			return "列挙値が不正です"
		case "invalid_literal":
			return "リテラル値が一致しません"
		case "invalid_arguments":
			return "関数の引数が不正です"
		case "invalid_return_type":
			return "関数の戻り値が不正です"
		case "invalid_union":
			return "どのユニオン候補にも一致しません"
		case "invalid_intersection":
			return "交差型を統合できません"
		case "invalid_instance":
			return "インスタンスの型が不正です"
		case "unrecognized_keys":
			return "未知のキーが含まれています"
		case "forbidden":
			return "許可されていない値です"
		case "custom":
			return "値が不正です"
		}
	default: // "en"
		switch code {
		case "required":
			return "required value missing"
		case "invalid_type":
			if exp, got := pstr(params, "expected"), pstr(params, "received"); exp != "" && got != "" {
				return fmt.Sprintf("expected %s, received %s", exp, got)
			}
			return "invalid type"
		case "invalid_array":
			return boundsMessage("array", "element(s)", params, "array constraint violated")
		case "invalid_date":
			return dateMessage(params)
		case "invalid_set":
			return boundsMessage("set", "element(s)", params, "set constraint violated")
		case "invalid_tuple":
			switch pstr(params, "check") {
			case "min":
				return fmt.Sprintf("tuple must contain at least %s element(s)", pstr(params, "minimum"))
			case "max":
				return fmt.Sprintf("tuple must contain at most %s element(s)", pstr(params, "maximum"))
			}
			return "invalid tuple length"
		case "invalid_enum_value":
			if exp := pstr(params, "expected"); exp != "" {
				return fmt.Sprintf("invalid enum value, expected one of %s", exp)
			}
			return "invalid enum value"
		case "invalid_literal":
			if exp := pstr(params, "expected"); exp != "" {
				return fmt.Sprintf("invalid literal value, expected %s", exp)
			}
			return "invalid literal value"
		case "invalid_arguments":
			return "invalid function arguments"
		case "invalid_return_type":
			return "invalid function return type"
		case "invalid_union":
			return "input did not match any union member"
		case "invalid_intersection":
			return "intersection members could not be merged"
		case "invalid_instance":
			if exp := pstr(params, "expected"); exp != "" {
				return fmt.Sprintf("expected an instance of %s", exp)
			}
			return "invalid instance"
		case "unrecognized_keys":
			if keys := pstr(params, "keys"); keys != "" {
				return fmt.Sprintf("unrecognized key(s) in object: %s", keys)
			}
			return "unrecognized keys in object"
		case "forbidden":
			return "value not allowed"
		case "custom":
			return customMessage(params)
		}
	}
	return code
}

// boundsMessage renders min/max/length check failures for sequence kinds.
func boundsMessage(noun, unit string, params map[string]any, fallback string) string {
	switch pstr(params, "check") {
	case "min":
		return fmt.Sprintf("%s must contain at least %s %s", noun, pstr(params, "min"), unit)
	case "max":
		return fmt.Sprintf("%s must contain at most %s %s", noun, pstr(params, "max"), unit)
	case "length", "size":
		return fmt.Sprintf("%s must contain exactly %s %s", noun, pstr(params, "expected"), unit)
	case "ascending":
		return noun + " must be sorted in ascending order"
	case "descending":
		return noun + " must be sorted in descending order"
	}
	return fallback
}

func dateMessage(params map[string]any) string {
	switch pstr(params, "check") {
	case "parse":
		return "value could not be coerced to a date"
	case "min":
		return fmt.Sprintf("date must be after %s", pstr(params, "min"))
	case "max":
		return fmt.Sprintf("date must be before %s", pstr(params, "max"))
	case "range":
		return fmt.Sprintf("date must be between %s and %s", pstr(params, "min"), pstr(params, "max"))
	}
	return "invalid date"
}

// customMessage covers refinement failures and the checks that report
// through the custom code (string/number/bigint constraints).
func customMessage(params map[string]any) string {
	kind := pstr(params, "kind")
	switch pstr(params, "check") {
	case "min":
		if kind == "string" {
			return fmt.Sprintf("string must contain at least %s character(s)", pstr(params, "min"))
		}
		return fmt.Sprintf("value must be greater than or equal to %s", pstr(params, "min"))
	case "max":
		if kind == "string" {
			return fmt.Sprintf("string must contain at most %s character(s)", pstr(params, "max"))
		}
		return fmt.Sprintf("value must be less than or equal to %s", pstr(params, "max"))
	case "length":
		return fmt.Sprintf("string must contain exactly %s character(s)", pstr(params, "expected"))
	case "gt":
		return fmt.Sprintf("value must be greater than %s", pstr(params, "gt"))
	case "lt":
		return fmt.Sprintf("value must be less than %s", pstr(params, "lt"))
	case "int":
		return "number must be an integer"
	case "multiple_of":
		return fmt.Sprintf("number must be a multiple of %s", pstr(params, "multipleOf"))
	case "positive":
		return "value must be positive"
	case "negative":
		return "value must be negative"
	case "nonempty":
		return "value must not be empty"
	case "pattern":
		return "string does not match the required pattern"
	case "email":
		return "invalid email address"
	case "url":
		return "invalid url"
	case "uuid":
		return "invalid uuid"
	}
	return "invalid value"
}

func pstr(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, params map[string]any) string { return currentTranslator.Message(code, params) }
