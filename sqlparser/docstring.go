package sqlparser

import "strings"

// Comment returns the function's documentation block cleaned for use as a
// docstring: comment markers removed, at most one leading space per line
// dropped, the block dedented and trimmed. Pragma lines (`--!`) are
// configuration, not documentation, and are excluded. Empty when the
// function has no preceding comment.
func (f Function) Comment() string {
	var lines []string
	for _, entry := range f.Docstring {
		for _, line := range strings.Split(entry.Value, "\n") {
			lines = append(lines, line)
		}
	}
	return cleanCommentBlock(lines)
}

func cleanCommentBlock(lines []string) string {
	var cleaned []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		isLineComment := strings.HasPrefix(stripped, "--")
		isPragma := strings.HasPrefix(stripped, "--!")
		isBlockStart := strings.HasPrefix(stripped, "/*")
		isBlockEnd := strings.HasSuffix(stripped, "*/")
		isLeadingStar := strings.HasPrefix(stripped, "*") && !isBlockStart && !isBlockEnd

		var out string
		switch {
		case isPragma:
			continue
		case isLineComment:
			out = dropOneSpace(stripped[2:])
		case isBlockStart && isBlockEnd:
			if len(stripped) > 4 {
				out = strings.TrimSpace(stripped[2 : len(stripped)-2])
			}
		case isBlockStart:
			out = dropOneSpace(stripped[2:])
		case isBlockEnd:
			out = strings.TrimRight(stripped[:len(stripped)-2], " \t")
		case isLeadingStar:
			out = dropOneSpace(stripped[1:])
		default:
			out = stripped
		}
		cleaned = append(cleaned, out)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return strings.TrimSpace(dedent(strings.Join(cleaned, "\n")))
}

func dropOneSpace(s string) string {
	return strings.TrimPrefix(s, " ")
}

// dedent removes the longest common leading whitespace from all non-blank
// lines.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return text
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
