package query

import (
	"regexp"
	"strings"

	"videotube/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublicProfileFields is the account projection shared by every joined view.
var PublicProfileFields = bson.M{"username": 1, "fullName": 1, "avatar": 1}

func publicProfile() *Pipeline {
	return New().Project(PublicProfileFields)
}

// withOwner replaces the account id in field with the account's public profile.
// A dangling reference leaves the field missing.
func (p *Pipeline) withOwner(field string) *Pipeline {
	return p.Lookup(db.Users, field, "_id", field, publicProfile()).First(field)
}

// ChannelProfile resolves a channel by username with subscription counts and
// whether viewer is subscribed. viewer may be the zero id for anonymous reads.
func ChannelProfile(username string, viewer primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"username": strings.ToLower(strings.TrimSpace(username))}).
		Lookup(db.Subscriptions, "_id", "channel", "subscribers", nil).
		Lookup(db.Subscriptions, "_id", "subscriber", "subscribedTo", nil).
		AddFields(bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}).
		Project(bson.M{
			"username":                  1,
			"fullName":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		})
}

// WatchHistory resolves an account's history in stored order.
func WatchHistory(accountID primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"_id": accountID}).
		Lookup(db.Videos, "watchHistory", "_id", "historyVideos", New().withOwner("owner")).
		OrderByRefs("historyVideos", "watchHistory").
		Project(bson.M{"watchHistory": 1})
}

// VideoDetail resolves one video with its owner and like count.
func VideoDetail(videoID primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"_id": videoID}).
		withOwner("owner").
		Lookup(db.Likes, "_id", "video", "likes", New().Project(bson.M{"_id": 1})).
		AddFields(bson.M{"likesCount": bson.M{"$size": "$likes"}}).
		Exclude("likes")
}

// VideoFilter narrows the public video feed.
type VideoFilter struct {
	Search string
	Owner  primitive.ObjectID
}

// VideoFeed pages through published videos. Pagination runs before the owner
// join so only one page of owners is resolved.
func VideoFeed(f VideoFilter, order bson.D, pg Page) *Pipeline {
	match := bson.M{"isPublished": true}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	if !f.Owner.IsZero() {
		match["owner"] = f.Owner
	}
	return New().
		Match(match).
		Sort(order).
		Page(pg).
		withOwner("owner")
}

// CommentFeed pages through a video's comments in insertion order.
func CommentFeed(videoID primitive.ObjectID, pg Page) *Pipeline {
	return New().
		Match(bson.M{"video": videoID}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Page(pg).
		withOwner("owner")
}

// TweetFeed pages through an account's tweets, newest first.
func TweetFeed(owner primitive.ObjectID, pg Page) *Pipeline {
	return New().
		Match(bson.M{"owner": owner}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Page(pg).
		withOwner("owner")
}

// PlaylistDetail resolves a playlist's owner and its videos, each with its
// own owner, keeping the stored order and dropping deleted videos.
func PlaylistDetail(playlistID primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"_id": playlistID}).
		Lookup(db.Videos, "videos", "_id", "resolvedVideos", New().withOwner("owner")).
		OrderByRefs("resolvedVideos", "videos").
		withOwner("owner")
}

// UserPlaylists lists an account's playlists with their sizes.
func UserPlaylists(owner primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"owner": owner}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		AddFields(bson.M{"totalVideos": bson.M{"$size": bson.M{"$ifNull": bson.A{"$videos", bson.A{}}}}}).
		Exclude("videos")
}

// LikedVideos lists the videos an account liked, most recent like first.
func LikedVideos(accountID primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"likedBy": accountID, "video": bson.M{"$exists": true}}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Lookup(db.Videos, "video", "_id", "video", New().withOwner("owner")).
		First("video").
		Match(bson.M{"video": bson.M{"$exists": true}}).
		ReplaceRoot("video")
}

// ChannelSubscribers lists the public profiles subscribed to channel.
func ChannelSubscribers(channel primitive.ObjectID) *Pipeline {
	return edgeProfiles("channel", channel, "subscriber")
}

// SubscribedChannels lists the public profiles of channels subscriber follows.
func SubscribedChannels(subscriber primitive.ObjectID) *Pipeline {
	return edgeProfiles("subscriber", subscriber, "channel")
}

func edgeProfiles(matchField string, id primitive.ObjectID, profileField string) *Pipeline {
	return New().
		Match(bson.M{matchField: id}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		withOwner(profileField).
		Match(bson.M{profileField: bson.M{"$exists": true}}).
		ReplaceRoot(profileField)
}

// ChannelVideos lists every video of a channel, unpublished ones included.
func ChannelVideos(owner primitive.ObjectID, pg Page) *Pipeline {
	return New().
		Match(bson.M{"owner": owner}).
		Sort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		Page(pg)
}

// ChannelVideoStats yields {totalViews, totalVideos}; no document when the
// channel has no videos.
func ChannelVideoStats(owner primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"owner": owner}).
		Group(bson.M{
			"_id":         nil,
			"totalViews":  bson.M{"$sum": "$views"},
			"totalVideos": bson.M{"$sum": 1},
		})
}

// ChannelSubscriberCount yields {totalSubscribers}.
func ChannelSubscriberCount(channel primitive.ObjectID) *Pipeline {
	return New().
		Match(bson.M{"channel": channel}).
		Count("totalSubscribers")
}

// ChannelLikeCount yields {totalLikes}: likes whose target video, comment or
// tweet is owned by the channel. Likes carry no owner, so the target is joined.
func ChannelLikeCount(owner primitive.ObjectID) *Pipeline {
	ownerOnly := New().Project(bson.M{"owner": 1})
	return New().
		Lookup(db.Videos, "video", "_id", "videoInfo", ownerOnly).
		Lookup(db.Comments, "comment", "_id", "commentInfo", ownerOnly).
		Lookup(db.Tweets, "tweet", "_id", "tweetInfo", ownerOnly).
		Match(bson.M{"$or": bson.A{
			bson.M{"videoInfo.owner": owner},
			bson.M{"commentInfo.owner": owner},
			bson.M{"tweetInfo.owner": owner},
		}}).
		Count("totalLikes")
}
