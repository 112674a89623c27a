package sitedata

import (
	"time"

	ggit "github.com/go-git/go-git/v5"
)

// GitInfo describes the checked-out commit of the project repository.
type GitInfo struct {
	Commit      string    `json:"commit"`
	ShortCommit string    `json:"short_commit"`
	Branch      string    `json:"branch"`
	Date        time.Time `json:"date"`
}

// ReadGitInfo opens the repository containing dir (searching parent
// directories). ok is false when dir is not inside a git work tree or HEAD
// cannot be resolved, such as in a repository without commits.
func ReadGitInfo(dir string) (GitInfo, bool) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return GitInfo{}, false
	}
	head, err := repo.Head()
	if err != nil {
		return GitInfo{}, false
	}

	info := GitInfo{Commit: head.Hash().String()}
	info.ShortCommit = info.Commit[:7]
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		info.Date = commit.Committer.When
	}
	return info, true
}
