package file

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/service/hashing"
)

// Opener resolves an expiring media link to the file it grants.
type Opener interface {
	OpenHash(token string) (string, error)
}

type Controller struct {
	opener   Opener
	mediaDir string
}

func NewController(opener Opener, mediaDir string) *Controller {
	return &Controller{opener: opener, mediaDir: mediaDir}
}

// File serves /media/<token> where token was issued by hashing.Signer.
func (cf Controller) File(c *web.Context) error {
	token := strings.TrimPrefix(c.Param("filepath"), "/")
	if token == "" || strings.Contains(token, "/") {
		return c.RespondError(web.NewRequestError(hashing.ErrIncorrectLink, http.StatusBadRequest))
	}

	file, err := cf.opener.OpenHash(token)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}

	path := filepath.Join(cf.mediaDir, filepath.FromSlash(file))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return c.RespondError(web.NewRequestError(errors.New("file not found"), http.StatusNotFound))
	}

	http.ServeFile(c.Writer, c.Request, path)

	return nil
}
