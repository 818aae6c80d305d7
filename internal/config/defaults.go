package config

// DefaultTOML is the configuration jjline uses when no file exists, written
// out with every option shown.
const DefaultTOML = `# jjline configuration

# Written after every module that printed something.
module_separator = " "
# Append a style reset after the last module.
reset_color = true
# Give up after this many milliseconds and print a bare prompt.
# timeout = 500

[bookmarks]
# How many generations above the working copy to search for bookmarks.
search_depth = 100
# Glob patterns; a bookmark matching by name or name@remote is hidden.
exclude = []

[[module]]
type = "Symbol"
symbol = "󱗆 "
# color = "Blue"

[[module]]
type = "Bookmarks"
separator = " "
behind_symbol = "⇡"
# 0 shows every bookmark.
max_bookmarks = 1
# 0 disables truncation.
max_length = 0
surround_with_quotes = false
# none, current or all
ignore_empty_commits = "none"
# color = "Magenta"

[[module]]
type = "Commit"
max_length = 24
empty_text = "(no description set)"
surround_with_quotes = true
show_previous_if_empty = false
previous_message_symbol = "⇣"
show_change_id = false
show_commit_id = false
id_length = 8

[[module]]
type = "State"
separator = " "

[module.conflict]
text = "(CONFLICT)"
# color = "Red"

[module.divergent]
text = "(DIVERGENT)"
# color = "Cyan"

[module.hidden]
text = "(HIDDEN)"
# color = "Yellow"

[module.immutable]
text = "(IMMUTABLE)"
# color = "Yellow"

[module.empty]
text = "(EMPTY)"
# color = "Yellow"

[[module]]
type = "Metrics"
template = "[{changed} {added}{removed}]"
group_digits = false
# color = "Magenta"

[module.changed_files]
# color = "Cyan"

[module.added_lines]
prefix = "+"
# color = "Green"

[module.removed_lines]
prefix = "-"
# color = "Red"
`
