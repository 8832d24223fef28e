package services

import (
	"net"
	"strconv"
	"strings"

	"trysite/internal/models"
)

// RequestHost is the scheme and authority of the incoming request.
type RequestHost struct {
	Scheme string
	Host   string
	Port   int // 0 when the request carried no explicit port
}

func (rh RequestHost) Authority() string {
	return withPort(rh.Host, rh.Port)
}

func withPort(host string, port int) string {
	if port == 0 {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// TenantURL builds the public URL of a tenant. The first entry of the
// tenant's RequestURLHost list wins over the request host.
func TenantURL(settings *models.ShellSettings, rh RequestHost) string {
	host := rh.Host
	if settings.RequestURLHost != nil {
		for _, h := range strings.Split(*settings.RequestURLHost, ",") {
			if h = strings.TrimSpace(h); h != "" {
				host = h
				break
			}
		}
	}

	result := rh.Scheme + "://" + withPort(host, rh.Port)
	if settings.RequestURLPrefix != "" {
		result += "/" + settings.RequestURLPrefix
	}
	return result
}
