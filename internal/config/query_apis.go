package config

// DefaultLookupAPIs 默认的解析顺序
var DefaultLookupAPIs = []string{
	"https://ipapi.co/json/",
	"https://ipwho.is/",
}

// ExtendedLookupAPIs 返回 JSON 且字段能被归一化识别的其他 API, 按可靠性排序;
// 用于 resolve --extended
var ExtendedLookupAPIs = []string{
	"https://ipapi.co/json/",
	"https://ipwho.is/",
	"http://ip-api.com/json",    // query / regionName / countryCode / lat / lon / isp
	"https://ipwhois.app/json/", // ip / country_code / latitude / isp
	"https://api.seeip.org/geoip",
	"https://4.ident.me/json",
	"https://free.freeipapi.com/api/json",
	// "https://ipinfo.io/json", // 准确, 免费速率限制
}
