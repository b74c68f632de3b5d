package http

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/core"
	"github.com/dkeye/stagehand/internal/domain"
	"github.com/dkeye/stagehand/internal/media"
	"github.com/dkeye/stagehand/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize = 320
	// adminSID tags commands issued through the HTTP API.
	adminSID domain.ConnID = "admin"
)

type stateReader interface {
	Snapshot() core.RegistrySnapshot
}

type photoReader interface {
	Snapshot() []domain.PhotoMeta
	Get(n domain.ParticipantID, count int) (domain.Photo, bool)
}

type enqueuer interface {
	Enqueue(ctx context.Context, ev orch.Event) error
}

type Handlers struct {
	Registry  stateReader
	Photos    photoReader
	Orch      enqueuer
	Version   string
	PublicURL string
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) ShowVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.Version})
}

func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.Snapshot())
}

func (h *Handlers) ListPhotos(c *gin.Context) {
	c.JSON(http.StatusOK, h.Photos.Snapshot())
}

// ResetPhotos goes through the event loop like any control command.
func (h *Handlers) ResetPhotos(ctx context.Context, c *gin.Context) {
	err := h.Orch.Enqueue(ctx, orch.Event{
		Kind: orch.EventCommand,
		SID:  adminSID,
		Cmd:  protocol.ResetPhotos{},
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handlers) Thumbnail(c *gin.Context) {
	n, err := domain.ParseParticipantID(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid picture count"})
		return
	}
	p, ok := h.Photos.Get(n, count)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "photo not found"})
		return
	}
	thumb, err := media.Thumbnail(p.Data, media.ThumbSize)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Int("number", int(n)).Int("count", count).Msg("thumbnail")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "photo is not a decodable image"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

// QR renders a PNG join code for one client bundle. The encoded URL also
// tells the client which server to connect to.
func (h *Handlers) QR(c *gin.Context) {
	role := c.Param("role")
	if !slices.Contains(Bundles, role) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown role"})
		return
	}
	base := h.PublicURL
	if base == "" {
		base = requestBase(c.Request)
	}
	png, err := qrcode.Encode(JoinURL(base, role), qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// JoinURL is the address a client bundle is opened at.
func JoinURL(base, role string) string {
	return base + "/" + role + "?serverUrl=" + url.QueryEscape(base)
}

func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// LocalIPv4 returns the first non-loopback IPv4 address of the host.
func LocalIPv4() (string, bool) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", false
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), true
		}
	}
	return "", false
}
