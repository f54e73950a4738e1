package deps

import (
	"time"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/journal"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS []string         // IPs allowed to reach the API
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	Journal      *journal.Store   // authoritative entry collection
	Writer       *journal.Writer  // snapshot writer, for /infra
	Backend      store.Backend    // durable storage, pinged by /infra
	Catalog      *catalog.Holder  // predefined symptoms, swapped on reload
	Location     *time.Location   // day grouping timezone
	Locale       string           // day title month names

	CatalogReloadTrigger chan struct{} // manual symptom catalog reload, nil if no symptoms file
}
