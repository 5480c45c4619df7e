package intake

import (
	"fmt"
	"net"
	"net/url"
)

// IsSafeURL は SSRF 対策として参考画像の URL を検証します。
// http/https のみ許可し、プライベートやループバックのアドレスに解決されるホストは拒否します。
func IsSafeURL(rawURL string) (bool, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsed.Scheme)
	}

	ips, err := net.LookupIP(parsed.Hostname())
	if err != nil {
		return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", parsed.Hostname(), err)
	}
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip)
		}
	}
	return true, nil
}
