package score

import "regexp"

// versionPattern pairs an outdated-version regex with its fix text.
type versionPattern struct {
	re  *regexp.Regexp
	fix string
}

// outdatedVersionPatterns is the full scan table. Every pattern runs
// against every line, so one line can contribute several issues. OS X and
// api/v1 are matched case-sensitively; "os x" and "API/V1" are prose.
var outdatedVersionPatterns = []versionPattern{
	{regexp.MustCompile(`(?i)\bUbuntu\s+1[2-9]\.\d+`), "Update to Ubuntu 24.04 LTS"},
	{regexp.MustCompile(`(?i)\bUbuntu\s+2[0-2]\.\d+`), "Update to Ubuntu 24.04 LTS"},
	{regexp.MustCompile(`(?i)\bCentOS\s+[5-7]\b`), "CentOS 5-7 are EOL; use AlmaLinux 9 or Ubuntu 24.04"},
	{regexp.MustCompile(`(?i)\bDebian\s+(jessie|stretch|buster)\b`), "Update to Debian 12 (bookworm)"},
	{regexp.MustCompile(`(?i)\bmacOS\s+10\.\d+`), "Update to macOS 14+ (Sonoma)"},
	{regexp.MustCompile(`\bOS\s+X\b`), `Replace "OS X" with "macOS 14+"`},
	{regexp.MustCompile(`(?i)\bPHP\s+[5-7]\.\d+`), "Update to PHP 8.1+"},
	{regexp.MustCompile(`(?i)\bPHP\s+8\.0\b`), "Update to PHP 8.1+ (8.0 is EOL)"},
	{regexp.MustCompile(`(?i)\bMySQL\s+5\.\d+`), "Update to MySQL 8.0+"},
	{regexp.MustCompile(`(?i)\bDreamFactory\s+[2-6]\.\d+`), "Update to DreamFactory 7.4.x"},
	{regexp.MustCompile(`(?i)\bDreamFactory\s+7\.[0-3]\b`), "Update to DreamFactory 7.4.x"},
	{regexp.MustCompile(`\bapi/v1\b`), "Update to api/v2 endpoint"},
	{regexp.MustCompile(`(?i)\bWindows\s+Server\s+20(08|12|16)\b`), "Update to Windows Server 2022"},
	{regexp.MustCompile(`(?i)\bApache\s+2\.[0-2]\b`), "Update to Apache 2.4+"},
	{regexp.MustCompile(`(?i)\bnginx\s+1\.[0-9]\b`), "Update to nginx 1.24+"},
	{regexp.MustCompile(`(?i)\bnginx\s+1\.1\d\b`), "Update to nginx 1.24+"},
}

// upgradeContextPatterns exempt a whole line from the version scan: the
// line discusses an upgrade path rather than recommending the old version.
var upgradeContextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)upgrad(e|ing)\s+from`),
	regexp.MustCompile(`(?i)migrat(e|ing)\s+from`),
	regexp.MustCompile(`(?i)\blegacy\b`),
	regexp.MustCompile(`(?i)\bdeprecated\b`),
	regexp.MustCompile(`(?i)\bpreviously\b`),
	regexp.MustCompile(`(?i)\bold(er)?\s+version`),
	regexp.MustCompile(`(?i)\bno\s+longer\s+supported\b`),
	regexp.MustCompile(`(?i)\bend[\s-]of[\s-]life\b`),
}

func isUpgradeContext(line string) bool {
	for _, re := range upgradeContextPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
