package rest

import (
	"strconv"

	"github.com/spf13/cast"
)

func parseStringToFloat(str string) float64 {
	return cast.ToFloat64(str)
}

func parseAnyToFloat(v interface{}) float64 {
	return cast.ToFloat64(v)
}

// interface{} → int64，JSON 数字默认解成 float64
func toInt64(v interface{}) (int64, bool) {
	x, err := cast.ToInt64E(v)
	return x, err == nil
}

// interface{} → string，数值原样转为十进制字符串，精度交给调用方
func toString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
