package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigWhite             = "white"
	ConfigBlack             = "black"
	ConfigCacheFile         = "cache-file"
	ConfigBest              = "best"
	ConfigWorst             = "worst"
	ConfigMost              = "most"
	ConfigCostly            = "costly"
	ConfigLogLevel          = "log-level"
	ConfigExplorerURL       = "explorer-url"
	ConfigExplorerSpeeds    = "explorer-speeds"
	ConfigExplorerRatings   = "explorer-ratings"
	ConfigExplorerMoves     = "explorer-moves"
	ConfigRateLimitWait     = "rate-limit-wait"
	ConfigRequestsPerSecond = "requests-per-second"
	ConfigMaxPly            = "max-ply"
	ConfigOutput            = "output"
	ConfigHistogram         = "histogram"
	ConfigFile              = "config"
)

// Config holds settings from flags, REPOPT_* environment variables and an
// optional config file, in that order of precedence.
type Config struct {
	*viper.Viper
	flags *pflag.FlagSet
}

func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	fs := pflag.NewFlagSet("repopt", pflag.ContinueOnError)
	fs.StringSliceP(ConfigWhite, "w", nil, "PGN files or directories containing your White repertoire")
	fs.StringSliceP(ConfigBlack, "b", nil, "PGN files or directories containing your Black repertoire")
	fs.StringP(ConfigCacheFile, "c", "", "local file for caching opening book moves")
	fs.Int(ConfigBest, 10, "how many frequent positions to recommend for addition")
	fs.Int(ConfigWorst, 0, "how many infrequent positions to recommend for removal")
	fs.Int(ConfigMost, 0, "how many positions with many candidates to show")
	fs.Int(ConfigCostly, 0, "how many expensive choices to show")
	fs.String(ConfigLogLevel, "warn", "log level: debug, info, warn or disabled")
	fs.String(ConfigExplorerURL, "https://explorer.lichess.ovh/lichess", "opening explorer endpoint")
	fs.StringSlice(ConfigExplorerSpeeds, []string{"blitz", "rapid", "classical"}, "time controls to include")
	fs.IntSlice(ConfigExplorerRatings, []int{1600, 1800, 2000, 2200, 2500}, "rating groups to include")
	fs.Int(ConfigExplorerMoves, 20, "maximum number of replies fetched per position")
	fs.Duration(ConfigRateLimitWait, 10*time.Second, "wait after the explorer rate limits us")
	fs.Float64(ConfigRequestsPerSecond, 4, "maximum explorer requests per second (0 = unpaced)")
	fs.Int(ConfigMaxPly, 0, "stop propagating beyond this many plies (0 = unlimited)")
	fs.String(ConfigOutput, "text", "report format: text or yaml")
	fs.Bool(ConfigHistogram, true, "print a histogram of out-of-book position frequencies")
	fs.String(ConfigFile, "", "optional config file")
	c.flags = fs
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.SetEnvPrefix("repopt")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if cf := c.GetString(ConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// Usage describes every flag.
func (c *Config) Usage() string {
	if c.flags == nil {
		return ""
	}
	return c.flags.FlagUsages()
}
