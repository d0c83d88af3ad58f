package banner

// GetString returns the startup banner.
func GetString() string {
	return `
   __ _  _ __  (_) _ __   _   _ | | ___   ___
  / _` + "`" + ` || '_ \ | || '_ \ | | | || |/ __| / _ \
 | (_| || |_) || || |_) || |_| || |\__ \|  __/
  \__,_|| .__/ |_|| .__/  \__,_||_||___/ \___|
        |_|       |_|     API measurement engine
`
}
