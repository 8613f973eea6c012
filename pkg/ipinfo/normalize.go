package ipinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// accessor 从返回数据中取一个候选值, 不存在或为 null 时返回 false
type accessor func(payload map[string]any) (any, bool)

// key 按路径取值, 如 key("location", "city")
func key(path ...string) accessor {
	return func(payload map[string]any) (any, bool) {
		var cur any = payload
		for _, k := range path {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[k]; !ok || cur == nil {
				return nil, false
			}
		}
		return cur, true
	}
}

// 每个字段的候选键, 按优先级排列, 兼容 ipapi.co / ipwho.is / ip-api.com 等不同格式
// city 缺失时退回任一 region 键, 保证 Normalize 的结果再次编码后不变
var (
	addressFields     = []accessor{key("ip"), key("query"), key("ip_address")}
	cityFields        = []accessor{key("city"), key("region"), key("location", "city"), key("region_name"), key("regionName")}
	regionFields      = []accessor{key("region"), key("region_name"), key("regionName")}
	countryFields     = []accessor{key("country"), key("country_name")}
	countryCodeFields = []accessor{key("country_code"), key("country_code2"), key("countryCode")}
	latitudeFields    = []accessor{key("latitude"), key("lat"), key("location", "latitude")}
	longitudeFields   = []accessor{key("longitude"), key("lon"), key("location", "longitude")}
	orgFields         = []accessor{key("org"), key("connection", "isp"), key("asn", "name"), key("isp")}
	postalFields      = []accessor{key("postal"), key("zip"), key("zip_code")}
	timezoneFields    = []accessor{key("timezone"), key("timezone", "id"), key("time_zone")}
)

// Normalize 将任意 API 的返回数据转换为 Record, 每个字段取第一个有值的候选键
func Normalize(payload map[string]any) Record {
	return Record{
		Address:      firstString(payload, addressFields),
		City:         firstString(payload, cityFields),
		Region:       firstString(payload, regionFields),
		Country:      firstString(payload, countryFields),
		CountryCode:  strings.ToUpper(firstString(payload, countryCodeFields)),
		Latitude:     firstFloat(payload, latitudeFields),
		Longitude:    firstFloat(payload, longitudeFields),
		Organization: firstString(payload, orgFields),
		PostalCode:   firstString(payload, postalFields),
		TimeZone:     firstString(payload, timezoneFields),
	}
}

// ParsePayload 解析响应体, 只接受 JSON 对象
func ParsePayload(body []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("payload is not a json object")
	}
	return payload, nil
}

// firstString 空字符串视为不存在; 数字按原样格式化 (部分 API 的邮编是数字)
func firstString(payload map[string]any, fields []accessor) string {
	for _, field := range fields {
		v, ok := field(payload)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// firstFloat 接受 JSON 数字和数字字符串, 0 是有效值
func firstFloat(payload map[string]any, fields []accessor) *float64 {
	for _, field := range fields {
		v, ok := field(payload)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return &f
			}
		}
	}
	return nil
}
